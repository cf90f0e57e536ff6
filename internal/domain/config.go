package domain

type Config struct {
	FQDN       string `yaml:"fqdn"`
	ServiceID  string `yaml:"serviceId"`
	PrivateKey string `yaml:"privatekey"`
	Directory  string `yaml:"directory"`
}
