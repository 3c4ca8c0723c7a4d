package app

import (
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/litscan/litscan/internal/domain"
)

// ConsumerIP picks the address the producer can reach this worker on. An
// explicit non-wildcard HOST wins; otherwise the kernel's outbound route
// decides, with the hostname lookup as a last resort.
func ConsumerIP(host string) string {
	if host != "" && host != "0.0.0.0" && host != "::" {
		return host
	}
	if conn, err := net.Dial("udp", "8.8.8.8:80"); err == nil {
		addr := conn.LocalAddr().(*net.UDPAddr)
		_ = conn.Close()
		return addr.IP.String()
	}
	if hostname, err := os.Hostname(); err == nil {
		if addrs, err := net.LookupHost(hostname); err == nil && len(addrs) > 0 {
			return addrs[0]
		}
	}
	return "127.0.0.1"
}

// RunRegistration keeps the worker's row present. Registration is a no-op
// when the row already exists, so re-registering after a schema reset is
// safe and cheap.
func RunRegistration(ctx domain.Context, repo domain.ConsumerRepository, ip, port string, interval time.Duration) {
	register := func() {
		if err := repo.Register(ctx, ip, port); err != nil {
			slog.Error("consumer registration failed", slog.String("ip", ip), slog.Any("error", err))
		}
	}
	register()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			register()
		}
	}
}
