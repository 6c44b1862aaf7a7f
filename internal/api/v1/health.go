package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/tphakala/birdview/internal/logger"
)

// HealthResponse reports process liveness and which habitats are in memory.
type HealthResponse struct {
	Status        string        `json:"status"`
	Version       string        `json:"version"`
	BuildDate     string        `json:"build_date,omitempty"`
	Uptime        string        `json:"uptime"`
	UptimeSeconds float64       `json:"uptime_seconds"`
	Timestamp     string        `json:"timestamp"`
	Loaded        []string      `json:"loaded_habitats"`
	Sessions      int           `json:"sessions"`
	Memory        *MemoryStatus `json:"memory,omitempty"`
}

// MemoryStatus is the host memory snapshot included in health replies.
type MemoryStatus struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Available   uint64  `json:"available"`
	UsedPercent float64 `json:"used_percent"`
}

// HealthCheck handles GET /api/v1/health.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	uptime := time.Since(c.startTime)

	loaded := []string{}
	for _, h := range c.Store.Loaded() {
		loaded = append(loaded, h.String())
	}

	resp := HealthResponse{
		Status:        "healthy",
		Version:       c.Settings.Version,
		BuildDate:     c.Settings.BuildDate,
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: uptime.Seconds(),
		Timestamp:     time.Now().Format(time.RFC3339),
		Loaded:        loaded,
		Sessions:      c.Sessions.Count(),
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		c.log.Debug("Memory statistics unavailable", logger.Error(err))
	} else {
		resp.Memory = &MemoryStatus{
			Total:       vm.Total,
			Used:        vm.Used,
			Available:   vm.Available,
			UsedPercent: vm.UsedPercent,
		}
	}

	return ctx.JSON(http.StatusOK, resp)
}
