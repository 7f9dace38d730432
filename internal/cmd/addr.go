package cmd

import (
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/AdguardTeam/golibs/log"
)

// addrProbeTimeout bounds each public-address lookup attempt.
const addrProbeTimeout = 5 * time.Second

// addrServices are the services used to discover the public address.
var addrServices = []string{
	"https://api.ipify.org",
	"https://ifconfig.me",
}

// detectAddress discovers the address clients should connect to.  It tries
// the public-address services first and falls back to the local route
// address, then to loopback.
func detectAddress() (addr string) {
	client := &http.Client{Timeout: addrProbeTimeout}

	for _, u := range addrServices {
		addr = fetchAddress(client, u)
		if addr != "" {
			log.Debug("addr: public address %s via %s", addr, u)

			return addr
		}
	}

	// No connection is actually made, dialing UDP only resolves the local
	// route address.
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		log.Error("addr: detecting local address: %v", err)

		return "127.0.0.1"
	}

	defer log.OnCloserError(conn, log.DEBUG)

	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// fetchAddress queries a single public-address service.  addr is empty when
// the lookup failed.
func fetchAddress(client *http.Client, u string) (addr string) {
	resp, err := client.Get(u)
	if err != nil {
		log.Debug("addr: querying %s: %v", u, err)

		return ""
	}

	defer log.OnCloserError(resp.Body, log.DEBUG)

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return ""
	}

	addr = strings.TrimSpace(string(b))
	if net.ParseIP(addr) == nil {
		return ""
	}

	return addr
}
