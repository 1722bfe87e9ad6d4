// Package bindings reads Cloud Foundry service bindings from VCAP_SERVICES.
package bindings

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const EnvVCAPServices = "VCAP_SERVICES"

const (
	LabelDestination  = "destination"
	LabelConnectivity = "connectivity"
)

type ServiceInstance struct {
	Name        string         `json:"name"`
	Label       string         `json:"label"`
	Plan        string         `json:"plan,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Credentials map[string]any `json:"credentials"`
}

// Services groups bound instances by service label.
type Services map[string][]ServiceInstance

func Parse(raw []byte) (Services, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Services{}, nil
	}
	services := Services{}
	if err := json.Unmarshal(raw, &services); err != nil {
		return nil, fmt.Errorf("bindings: decode %s: %w", EnvVCAPServices, err)
	}
	return services, nil
}

// FromEnv parses VCAP_SERVICES. An unset variable yields no services.
func FromEnv() (Services, error) {
	return Parse([]byte(os.Getenv(EnvVCAPServices)))
}

// Find returns the first instance with the given label, falling back to an
// instance tagged with it.
func (s Services) Find(label string) (ServiceInstance, bool) {
	label = strings.TrimSpace(label)
	if instances := s[label]; len(instances) > 0 {
		return instances[0], true
	}
	for _, instances := range s {
		for _, instance := range instances {
			if instance.Label == label {
				return instance, true
			}
			for _, tag := range instance.Tags {
				if tag == label {
					return instance, true
				}
			}
		}
	}
	return ServiceInstance{}, false
}

type DestinationCredentials struct {
	ClientID     string
	ClientSecret string
	URL          string
	URI          string
}

func (s Services) Destination() (DestinationCredentials, bool) {
	instance, ok := s.Find(LabelDestination)
	if !ok {
		return DestinationCredentials{}, false
	}
	return DestinationCredentials{
		ClientID:     credentialString(instance.Credentials, "clientid"),
		ClientSecret: credentialString(instance.Credentials, "clientsecret"),
		URL:          credentialString(instance.Credentials, "url"),
		URI:          credentialString(instance.Credentials, "uri"),
	}, true
}

type ConnectivityCredentials struct {
	ClientID        string
	ClientSecret    string
	URL             string
	TokenServiceURL string
	ProxyHost       string
	ProxyPort       int
}

func (s Services) Connectivity() (ConnectivityCredentials, bool) {
	instance, ok := s.Find(LabelConnectivity)
	if !ok {
		return ConnectivityCredentials{}, false
	}
	return ConnectivityCredentials{
		ClientID:        credentialString(instance.Credentials, "clientid"),
		ClientSecret:    credentialString(instance.Credentials, "clientsecret"),
		URL:             credentialString(instance.Credentials, "url"),
		TokenServiceURL: credentialString(instance.Credentials, "token_service_url"),
		ProxyHost:       credentialString(instance.Credentials, "onpremise_proxy_host"),
		ProxyPort:       credentialInt(instance.Credentials, "onpremise_proxy_http_port", "onpremise_proxy_port"),
	}, true
}

func credentialString(credentials map[string]any, key string) string {
	value, ok := credentials[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func credentialInt(credentials map[string]any, keys ...string) int {
	for _, key := range keys {
		switch typed := credentials[key].(type) {
		case float64:
			return int(typed)
		case int:
			return typed
		case string:
			if parsed, err := strconv.Atoi(strings.TrimSpace(typed)); err == nil {
				return parsed
			}
		}
	}
	return 0
}
