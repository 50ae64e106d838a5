package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mssola/useragent"
)

// ClientInfo is the parsed User-Agent of the caller. Reveal requests come from
// holder wallets and verifier integrations, so request logs carry the parsed
// client rather than the raw header.
type ClientInfo struct {
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

func (c ClientInfo) String() string {
	if c.Browser == "" && c.OS == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s/%s", c.Browser, c.OS)
}

type clientInfoKey struct{}

// ClientMetadata parses the User-Agent header and stores the result in the
// request context.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("User-Agent")
		info := ClientInfo{}
		if raw != "" {
			ua := useragent.New(raw)
			name, _ := ua.Browser()
			info = ClientInfo{
				Browser: name,
				OS:      ua.OS(),
				Mobile:  ua.Mobile(),
				Bot:     ua.Bot(),
			}
		}
		ctx := context.WithValue(r.Context(), clientInfoKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientInfo retrieves the parsed client info from the context.
func GetClientInfo(ctx context.Context) ClientInfo {
	if info, ok := ctx.Value(clientInfoKey{}).(ClientInfo); ok {
		return info
	}
	return ClientInfo{}
}
