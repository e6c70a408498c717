package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/utils"
)

const openIDEndpoint = "https://steamcommunity.com/openid/login"

var steamIDClaimPattern = regexp.MustCompile(`^https://steamcommunity\.com/openid/id/(\d+)$`)

// OpenID implements the Steam OpenID 2.0 login flow: LoginURL sends
// the user to Steam, VerifyCallback replays the signed response with
// check_authentication and extracts the Steam64 id from the claim.
type OpenID struct {
	log        *logger.Logger
	returnTo   string
	realm      string
	httpClient *http.Client
}

func NewOpenID(log *logger.Logger) (*OpenID, error) {
	returnTo, err := utils.MustEnv("STEAM_OPENID_RETURN_TO")
	if err != nil {
		return nil, err
	}
	realm, err := utils.MustEnv("STEAM_OPENID_REALM")
	if err != nil {
		return nil, err
	}
	return &OpenID{
		log:        log.With("client", "SteamOpenID"),
		returnTo:   returnTo,
		realm:      realm,
		httpClient: http.DefaultClient,
	}, nil
}

func (o *OpenID) LoginURL() string {
	params := url.Values{}
	params.Set("openid.ns", "http://specs.openid.net/auth/2.0")
	params.Set("openid.mode", "checkid_setup")
	params.Set("openid.return_to", o.returnTo)
	params.Set("openid.realm", o.realm)
	params.Set("openid.identity", "http://specs.openid.net/auth/2.0/identifier_select")
	params.Set("openid.claimed_id", "http://specs.openid.net/auth/2.0/identifier_select")
	return openIDEndpoint + "?" + params.Encode()
}

// VerifyCallback validates the OpenID response query and returns the
// asserted Steam64 id.
func (o *OpenID) VerifyCallback(ctx context.Context, query url.Values) (string, error) {
	claimed := query.Get("openid.claimed_id")
	m := steamIDClaimPattern.FindStringSubmatch(claimed)
	if m == nil {
		return "", fmt.Errorf("steam openid: unexpected claimed_id %q", claimed)
	}

	check := url.Values{}
	for key, vals := range query {
		if strings.HasPrefix(key, "openid.") && len(vals) > 0 {
			check.Set(key, vals[0])
		}
	}
	check.Set("openid.mode", "check_authentication")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openIDEndpoint, strings.NewReader(check.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("steam openid: check_authentication: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if !strings.Contains(string(body), "is_valid:true") {
		return "", fmt.Errorf("steam openid: assertion not valid")
	}
	return m[1], nil
}
