package server

import (
	"fmt"
	"io"
	"net"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// LocalIPv4Addrs lists the non-loopback IPv4 addresses of this host, the
// addresses other devices on the same network can reach.
func LocalIPv4Addrs() ([]string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("list interface addresses: %w", err)
	}

	var ips []string
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			ips = append(ips, ip4.String())
		}
	}
	return ips, nil
}

// PrintBanner writes the startup summary: one row per listener and reachable
// host.
func PrintBanner(w io.Writer, listeners []*Listener, hosts []string) {
	title := color.New(color.FgGreen, color.OpBold)
	_, _ = fmt.Fprintln(w, title.Render("Walkie-talkie relay started"))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Listener", "Page", "WebSocket"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, l := range listeners {
		_, port, err := net.SplitHostPort(l.Addr)
		if err != nil {
			port = l.Addr
		}
		httpScheme := "http"
		if l.TLS() {
			httpScheme = "https"
		}
		for _, host := range append([]string{"localhost"}, hosts...) {
			hostPort := net.JoinHostPort(host, port)
			table.Append([]string{
				l.Name,
				httpScheme + "://" + hostPort,
				l.Scheme() + "://" + hostPort + "/ws",
			})
		}
	}
	table.Render()

	if !lo.SomeBy(listeners, func(l *Listener) bool { return l.TLS() }) {
		warn := color.New(color.FgYellow)
		_, _ = fmt.Fprintln(w, warn.Render("TLS disabled: browsers only allow microphone access on localhost. Set TLS_CERT_FILE and TLS_KEY_FILE to enable HTTPS."))
	}
}
