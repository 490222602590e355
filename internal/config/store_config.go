package config

type StoreConfig interface {
	GetDatabaseURL() string
	GetRedisURL() string
	GetRegistrationServiceURL() string
	GetRegistrationAMQPURL() string
	GetRegistrationQueue() string
	GetAdminEmail() string
	GetAdminPassword() string
}

type Stores struct{ values }

var _ StoreConfig = Stores{}

// GetDatabaseURL is the PostgreSQL DSN; empty selects the in-memory user store.
func (s Stores) GetDatabaseURL() string {
	return s.get("DATABASE_URL", "")
}

func (s Stores) GetRedisURL() string {
	return s.get("REDIS_URL", "redis://localhost:6379/0")
}

func (s Stores) GetRegistrationServiceURL() string {
	return s.get("REGISTRATION_SERVICE_URL", "")
}

func (s Stores) GetRegistrationAMQPURL() string {
	return s.get("REGISTRATION_AMQP_URL", "")
}

func (s Stores) GetRegistrationQueue() string {
	return s.get("REGISTRATION_QUEUE", "registrations")
}

func (s Stores) GetAdminEmail() string {
	return s.get("ADMIN_EMAIL", "")
}

func (s Stores) GetAdminPassword() string {
	return s.get("ADMIN_PASSWORD", "")
}
