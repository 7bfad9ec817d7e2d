// Package dockertester spins up a throwaway Postgres container for
// integration tests.
package dockertester

import (
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"gorm.io/gorm"

	"github.com/merchshop/api/internal/db"
)

const (
	postgresUser     = "test_user"
	postgresPassword = "test_password"
	postgresDB       = "test_db"
)

type DockerTester struct {
	Pool     *dockertest.Pool
	Resource *dockertest.Resource
}

// Start launches a Postgres container and waits until it accepts
// connections. The caller must Purge when done.
func Start() (*DockerTester, *gorm.DB, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, nil, fmt.Errorf("dockertest.NewPool -> %w", err)
	}

	if err = pool.Client.Ping(); err != nil {
		return nil, nil, fmt.Errorf("pool.Client.Ping -> %w", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=" + postgresUser,
			"POSTGRES_PASSWORD=" + postgresPassword,
			"POSTGRES_DB=" + postgresDB,
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("pool.RunWithOptions -> %w", err)
	}

	_ = resource.Expire(300) // kill the container if the test run hangs

	hostAndPort := resource.GetHostPort("5432/tcp")
	url := fmt.Sprintf("postgres://%v:%v@%v/%v?sslmode=disable",
		postgresUser, postgresPassword, hostAndPort, postgresDB)

	var database *gorm.DB
	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		database, err = db.OpenPostgresWithURL(url)
		if err != nil {
			return err
		}

		sqlDB, err := database.DB()
		if err != nil {
			return err
		}

		return sqlDB.Ping()
	})
	if err != nil {
		_ = pool.Purge(resource)
		return nil, nil, fmt.Errorf("pool.Retry -> %w", err)
	}

	return &DockerTester{
		Pool:     pool,
		Resource: resource,
	}, database, nil
}

func (d *DockerTester) Purge() error {
	return d.Pool.Purge(d.Resource)
}
