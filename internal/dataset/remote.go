package dataset

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/privacy"
)

// readSFTP fetches a CSV file over SSH. Cancelling ctx closes the connection.
func (l *Loader) readSFTP(ctx context.Context, src Source) (*rawTable, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.HTTPTimeout)
	defer cancel()

	cfg, err := l.sshConfig(src)
	if err != nil {
		return nil, remoteError(err, src, errors.CategoryConfiguration)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", src.Host)
	if err != nil {
		return nil, remoteError(fmt.Errorf("failed to connect: %w", err), src, errors.CategoryNetwork)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, src.Host, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, remoteError(fmt.Errorf("ssh handshake failed: %w", err), src, errors.CategoryNetwork)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)
	defer func() {
		if err := sshClient.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			l.log.Debug("Failed to close ssh connection", logger.Error(err))
		}
	}()

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return nil, remoteError(fmt.Errorf("failed to start sftp session: %w", err), src, errors.CategoryNetwork)
	}
	defer func() {
		if err := client.Close(); err != nil {
			l.log.Debug("Failed to close sftp session", logger.Error(err))
		}
	}()

	f, err := client.Open(src.Location)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open remote dataset file: %w", err)).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(src.Location, 0).
			Context("source", privacy.SanitizeSource(src.Raw)).
			Build()
	}
	defer func() {
		if err := f.Close(); err != nil {
			l.log.Debug("Failed to close remote dataset file", logger.Error(err))
		}
	}()

	raw, err := readCSV(f, l.opts.Delimiter)
	if err != nil && ctx.Err() != nil {
		return nil, remoteError(fmt.Errorf("transfer interrupted: %w", ctx.Err()), src, errors.CategoryNetwork)
	}
	return raw, err
}

// sshConfig authenticates with the URL password, or the configured key file
// when the URL has none.
func (l *Loader) sshConfig(src Source) (*ssh.ClientConfig, error) {
	cfg := &ssh.ClientConfig{Timeout: l.opts.HTTPTimeout}

	var password string
	var hasPassword bool
	if src.User != nil {
		cfg.User = src.User.Username()
		password, hasPassword = src.User.Password()
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("sftp source has no user name")
	}

	switch {
	case hasPassword:
		cfg.Auth = []ssh.AuthMethod{ssh.Password(password)}
	case l.opts.SSHKeyFile != "":
		key, err := os.ReadFile(l.opts.SSHKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read ssh private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ssh private key: %w", err)
		}
		cfg.Auth = []ssh.AuthMethod{ssh.PublicKeys(signer)}
	default:
		return nil, fmt.Errorf("sftp source needs a password or loader.ssh_key_file")
	}

	if l.opts.SSHKnownHosts == "" {
		l.log.Warn("Host key verification disabled for sftp source", logger.String("host", src.Host))
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // opt-in through empty loader.ssh_known_hosts
		return cfg, nil
	}
	callback, err := knownhosts.New(l.opts.SSHKnownHosts)
	if err != nil {
		return nil, fmt.Errorf("failed to read known hosts: %w", err)
	}
	cfg.HostKeyCallback = callback
	return cfg, nil
}

// readFTP fetches a CSV file from an FTP server. A URL without credentials logs
// in anonymously.
func (l *Loader) readFTP(ctx context.Context, src Source) (*rawTable, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.HTTPTimeout)
	defer cancel()

	conn, err := ftp.Dial(src.Host, ftp.DialWithContext(ctx), ftp.DialWithTimeout(l.opts.HTTPTimeout))
	if err != nil {
		return nil, remoteError(fmt.Errorf("failed to connect: %w", err), src, errors.CategoryNetwork)
	}
	defer func() {
		if err := conn.Quit(); err != nil {
			l.log.Debug("Failed to close ftp connection", logger.Error(err))
		}
	}()

	user, password := "anonymous", "anonymous"
	if src.User != nil {
		user = src.User.Username()
		if p, ok := src.User.Password(); ok {
			password = p
		}
	}
	if err := conn.Login(user, password); err != nil {
		return nil, remoteError(fmt.Errorf("ftp login failed: %w", err), src, errors.CategoryNetwork)
	}

	resp, err := conn.Retr(src.Location)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to retrieve remote dataset file: %w", err)).
			Component("dataset").
			Category(errors.CategoryFileIO).
			FileContext(src.Location, 0).
			Context("source", privacy.SanitizeSource(src.Raw)).
			Build()
	}
	defer func() {
		if err := resp.Close(); err != nil {
			l.log.Debug("Failed to close ftp transfer", logger.Error(err))
		}
	}()

	return readCSV(resp, l.opts.Delimiter)
}

func remoteError(err error, src Source, category errors.ErrorCategory) error {
	return errors.New(err).
		Component("dataset").
		Category(category).
		NetworkContext(privacy.SanitizeSource(src.Raw), 0).
		Context("source_type", string(src.Kind)).
		Build()
}
