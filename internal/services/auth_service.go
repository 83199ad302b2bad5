package services

import (
	"errors"
	"fmt"
	"log"
	"sync"

	authorizer "github.com/localnerve/authorizer-go"
	"github.com/localnerve/jam-build-configurator/internal/config"
	"github.com/localnerve/jam-build-configurator/internal/utils"
)

// ErrAuthorizerNotReady is returned while no Authorizer client exists
var ErrAuthorizerNotReady = errors.New("authorizer client not initialized")

// sessionCheck asks the Authorizer whether a session cookie holds roles
type sessionCheck func(cookie string, roles []*string) (valid bool, user interface{}, err error)

var (
	authMu    sync.RWMutex
	authCheck sessionCheck
	authOnce  sync.Once
)

// IsAuthorizerInitialized reports whether admin sessions can be validated
func IsAuthorizerInitialized() bool {
	authMu.RLock()
	defer authMu.RUnlock()
	return authCheck != nil
}

// InitAuthorizer creates the Authorizer client once. The redirect URL is
// built from the first request the server sees.
func InitAuthorizer(cfg *config.Config, requestProtocol, requestHost string) error {
	var initErr error

	authOnce.Do(func() {
		if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
			initErr = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}

		redirectURL := fmt.Sprintf("%s://%s", requestProtocol, requestHost)
		log.Printf("Initializing Authorizer for admin routes: authorizerURL=%s, clientID=%s, redirectURL=%s",
			cfg.AuthzURL, cfg.AuthzClientID, redirectURL)

		client, err := authorizer.NewAuthorizerClient(cfg.AuthzClientID, cfg.AuthzURL, redirectURL, nil)
		if err != nil {
			initErr = fmt.Errorf("failed to create authorizer client: %w", err)
			return
		}

		setSessionCheck(func(cookie string, roles []*string) (bool, interface{}, error) {
			res, err := client.ValidateSession(&authorizer.ValidateSessionInput{
				Cookie: cookie,
				Roles:  roles,
			})
			if err != nil || res == nil {
				return false, nil, err
			}
			return res.IsValid, res.User, nil
		})
	})

	return initErr
}

func setSessionCheck(check sessionCheck) {
	authMu.Lock()
	authCheck = check
	authMu.Unlock()
}

// ValidateSession checks an Authorizer session cookie against roles and
// returns the session user under "user"
func ValidateSession(cookie string, roles []string) (map[string]interface{}, error) {
	authMu.RLock()
	check := authCheck
	authMu.RUnlock()
	if check == nil {
		return nil, ErrAuthorizerNotReady
	}

	rolePtrs := make([]*string, len(roles))
	for i := range roles {
		rolePtrs[i] = &roles[i]
	}

	valid, user, err := check(cookie, rolePtrs)
	if err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("session is not valid for roles %v", roles)
	}

	return map[string]interface{}{
		"is_valid": true,
		"user":     user,
	}, nil
}
