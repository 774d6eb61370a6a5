package shopify

import (
	"strings"

	"github.com/hoangnm/variant-sync/internal/core/domain"
)

// Webhooks identify resources by bare numeric ids while the Admin
// GraphQL API expects gid URIs, so ids are widened on the way out and
// narrowed on the way back in.

func toGID(kind string, id domain.ID) string {
	s := string(id)
	if strings.HasPrefix(s, "gid://") {
		return s
	}
	return "gid://shopify/" + kind + "/" + s
}

func fromGID(gid string) domain.ID {
	if i := strings.LastIndex(gid, "/"); i >= 0 {
		return domain.ID(gid[i+1:])
	}
	return domain.ID(gid)
}
