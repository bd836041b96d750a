package config

type NATSConfig struct {
	// URL may be empty, in which case events are not published.
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	ClientName    string `yaml:"client_name"`
}

func loadNATSConfig() *NATSConfig {
	return &NATSConfig{
		URL:           getEnv("NATS_URL", ""),
		SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "reservations"),
		ClientName:    getEnv("NATS_CLIENT_NAME", "carpool-bff"),
	}
}
