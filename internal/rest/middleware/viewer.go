package middleware

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/reddit-post-votes/domain"
)

// HeaderViewer carries the username authenticated by the upstream gateway.
const HeaderViewer = "X-Username"

// DefaultGateways trusts a gateway on the same host.
var DefaultGateways = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
}

type viewerKey struct{}

// Viewer copies the upstream viewer identity into the request context.
// The header is only honoured when the peer address is inside gateways;
// any other request is anonymous.
func Viewer(gateways []netip.Prefix) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := strings.TrimSpace(c.GetHeader(HeaderViewer))
		if username != "" {
			if fromGateway(c.RemoteIP(), gateways) {
				ctx := WithViewer(c.Request.Context(), domain.Viewer{Username: username})
				c.Request = c.Request.WithContext(ctx)
			} else {
				logrus.Debugf("ignoring %s from untrusted peer %s", HeaderViewer, c.RemoteIP())
			}
		}
		c.Next()
	}
}

func fromGateway(remote string, gateways []netip.Prefix) bool {
	addr, err := netip.ParseAddr(remote)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range gateways {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ParseGateways parses a comma separated CIDR list. Empty input yields DefaultGateways.
func ParseGateways(s string) ([]netip.Prefix, error) {
	var res []netip.Prefix
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := netip.ParsePrefix(part)
		if err != nil {
			return nil, fmt.Errorf("parse gateway %q: %w", part, err)
		}
		res = append(res, p)
	}
	if len(res) == 0 {
		return DefaultGateways, nil
	}
	return res, nil
}

func WithViewer(ctx context.Context, v domain.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ContextIdentity reads the viewer put in the context by Viewer.
type ContextIdentity struct{}

var _ domain.IdentitySource = ContextIdentity{}

func (ContextIdentity) Viewer(ctx context.Context) (domain.Viewer, bool) {
	v, ok := ctx.Value(viewerKey{}).(domain.Viewer)
	if !ok || v.Username == "" {
		return domain.Viewer{}, false
	}
	return v, true
}
