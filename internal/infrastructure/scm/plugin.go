package scm

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/go-viper/mapstructure/v2"
	"golang.org/x/oauth2"

	apperrors "github.com/bravo68web/testuser/pkg/errors"
)

// Settings is the config section of one scms entry
type Settings struct {
	// Context overrides the derived "<plugin>:<host>" context name
	Context string        `mapstructure:"context"`
	Host    string        `mapstructure:"host"`
	APIURL  string        `mapstructure:"apiUrl"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Plugin is one configured source-control backend
type Plugin interface {
	// Name returns the plugin type, e.g. "github"
	Name() string

	// Context returns the scm context this backend serves
	Context() string

	// VerifyToken asks the provider who owns token
	VerifyToken(ctx context.Context, token string) (string, error)
}

// Factory builds a plugin from its settings without network I/O
type Factory func(settings Settings) (Plugin, error)

type provider struct {
	name       string
	host       string
	apiURL     string
	userPath   string
	loginField string
}

var providers = map[string]provider{
	"github": {
		name:       "github",
		host:       "github.com",
		apiURL:     "https://api.github.com",
		userPath:   "/user",
		loginField: "login",
	},
	"gitlab": {
		name:       "gitlab",
		host:       "gitlab.com",
		apiURL:     "https://gitlab.com/api/v4",
		userPath:   "/user",
		loginField: "username",
	},
	"bitbucket": {
		name:       "bitbucket",
		host:       "bitbucket.org",
		apiURL:     "https://api.bitbucket.org/2.0",
		userPath:   "/user",
		loginField: "username",
	},
}

func factoryFor(p provider) Factory {
	return func(settings Settings) (Plugin, error) {
		return newRESTPlugin(p, settings)
	}
}

// restPlugin verifies tokens against the provider's "current user" endpoint
type restPlugin struct {
	provider
	context string
	timeout time.Duration
}

func newRESTPlugin(p provider, s Settings) (*restPlugin, error) {
	if s.Host != "" {
		p.host = s.Host
	}
	if s.APIURL != "" {
		p.apiURL = strings.TrimRight(s.APIURL, "/")
	}
	if _, err := url.ParseRequestURI(p.apiURL); err != nil {
		return nil, apperrors.ConfigurationError(fmt.Sprintf("invalid %s apiUrl %q", p.name, p.apiURL), err)
	}

	scmContext := s.Context
	if scmContext == "" {
		scmContext = p.name + ":" + p.host
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &restPlugin{provider: p, context: scmContext, timeout: timeout}, nil
}

func (p *restPlugin) Name() string    { return p.name }
func (p *restPlugin) Context() string { return p.context }

func (p *restPlugin) VerifyToken(ctx context.Context, token string) (string, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	client := resty.NewWithClient(httpClient).
		SetTimeout(p.timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "create-test-user")

	var body map[string]any
	resp, err := client.R().
		SetContext(ctx).
		SetResult(&body).
		Get(p.apiURL + p.userPath)
	if err != nil {
		return "", apperrors.SCMError(fmt.Sprintf("failed to reach %s", p.context), err)
	}
	if resp.IsError() {
		return "", apperrors.SCMError(
			fmt.Sprintf("%s rejected the token", p.context),
			fmt.Errorf("unexpected status %d", resp.StatusCode()),
		)
	}

	login, _ := body[p.loginField].(string)
	if login == "" {
		return "", apperrors.SCMError(
			fmt.Sprintf("%s returned no %s for the token", p.context, p.loginField), nil,
		)
	}
	return login, nil
}

func decodeSettings(raw map[string]any) (Settings, error) {
	var s Settings
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &s,
	})
	if err != nil {
		return s, err
	}
	return s, decoder.Decode(raw)
}
