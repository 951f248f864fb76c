package domain

type Config struct {
	Listen        string `yaml:"listen"`
	SQLitePath    string `yaml:"sqlitePath"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LogFile       string `yaml:"logFile"`
}
