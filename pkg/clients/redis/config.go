package redis

type RedisConfig struct {
	// host:port address.
	Host     string `json:"host" yaml:"host"`
	Password string `json:"password" yaml:"password"`
	// Database to be selected after connecting to the server.
	Db int `json:"db" yaml:"db"`
	// Maximum number of socket connections.
	PoolSize int `json:"pool_size" yaml:"poolSize"`
	// Maximum number of retries before giving up.
	MaxRetries int `json:"max_retries" yaml:"maxRetries"`
	// Dial timeout in seconds.
	DialTimeout int64 `json:"dial_timeout" yaml:"dialTimeout"`
	// Read and write timeout in seconds.
	ReadTimeout  int64 `json:"read_timeout" yaml:"readTimeout"`
	WriteTimeout int64 `json:"write_timeout" yaml:"writeTimeout"`
	// Minimum number of idle connections.
	MinIdleConns int `json:"min_idle_conns" yaml:"minIdleConns"`
	// Seconds to wait for a connection when the pool is exhausted.
	PoolTimeout int64 `json:"pool_timeout" yaml:"poolTimeout"`
	// Seconds after which idle connections are closed.
	IdleTimeout int64 `json:"idle_timeout" yaml:"idleTimeout"`
}

func (rc *RedisConfig) DefaultConfig() {
	if rc.PoolSize == 0 {
		rc.PoolSize = 100
	}
	if rc.MaxRetries == 0 {
		rc.MaxRetries = 3
	}
	if rc.DialTimeout == 0 {
		rc.DialTimeout = 5
	}
	if rc.ReadTimeout == 0 {
		rc.ReadTimeout = 3
	}
	if rc.WriteTimeout == 0 {
		rc.WriteTimeout = 3
	}
	if rc.MinIdleConns == 0 {
		rc.MinIdleConns = 4
	}
	if rc.PoolTimeout == 0 {
		rc.PoolTimeout = 5
	}
	if rc.IdleTimeout == 0 {
		rc.IdleTimeout = 300
	}
}
