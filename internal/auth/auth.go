package auth

import (
	"context"
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"
)

const (
	// RoleAsker may call POST /ask.
	RoleAsker = "asker"
	// RoleOperator may inspect the schema and translate questions without
	// executing them.
	RoleOperator = "operator"
	// RoleAdmin satisfies every role check.
	RoleAdmin = "admin"
)

// Identity is the API client a static key belongs to.
type Identity struct {
	Client string
	Roles  []string
}

func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role) || slices.Contains(i.Roles, RoleAdmin)
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

// StaticAPIKeyValidator holds SHA-256 digests of the configured keys, never
// the keys themselves.
type StaticAPIKeyValidator struct {
	keys map[[sha256.Size]byte]Identity
}

// NewStaticAPIKeyValidator parses comma separated key:client:role|role entries.
func NewStaticAPIKeyValidator(spec string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{keys: map[[sha256.Size]byte]Identity{}}
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, identity, err := parseEntry(entry)
		if err != nil {
			return nil, err
		}
		digest := sha256.Sum256([]byte(key))
		if _, dup := validator.keys[digest]; dup {
			return nil, fmt.Errorf("duplicate static key for client %q", identity.Client)
		}
		validator.keys[digest] = identity
	}
	return validator, nil
}

func parseEntry(entry string) (string, Identity, error) {
	parts := strings.Split(entry, ":")
	if len(parts) != 3 {
		return "", Identity{}, fmt.Errorf("invalid static key entry: expected key:client:role|role")
	}
	key := strings.TrimSpace(parts[0])
	client := strings.TrimSpace(parts[1])
	if key == "" || client == "" {
		return "", Identity{}, fmt.Errorf("invalid static key entry for client %q: empty key or client", client)
	}
	var roles []string
	for _, role := range strings.Split(parts[2], "|") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return "", Identity{}, fmt.Errorf("invalid static key entry for client %q: at least one role is required", client)
	}
	slices.Sort(roles)
	return key, Identity{Client: client, Roles: slices.Compact(roles)}, nil
}

func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	identity, ok := v.keys[sha256.Sum256([]byte(apiKey))]
	return identity, ok
}
