// Package testutil starts the containers the integration tests and the
// standalone testcontainers command run against. Environment variables are
// expected to come from an .env file.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/localnerve/jam-build-configurator/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultDBImage      = "mariadb:11"
	configuratorImage   = "configurator-test:latest"
	authzNetworkAlias   = "authorizer"
	debuggerPort        = "2345/tcp"
	dbReadyPingAttempts = 30
)

// StackEnv is the container stack configuration
type StackEnv struct {
	DBType            string
	DBImage           string
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBRootPassword    string
	DBConnectionLimit string

	AuthzImage       string
	AuthzPort        string
	AuthzDatabase    string
	AuthzClientID    string
	AuthzAdminSecret string

	Port         string
	BuildContext string
	Debug        bool
}

// StackEnvFromEnviron reads the stack configuration from the environment
func StackEnvFromEnviron() StackEnv {
	env := StackEnv{
		DBType:            os.Getenv("DB_TYPE"),
		DBImage:           os.Getenv("DB_IMAGE"),
		DBHost:            os.Getenv("DB_HOST"),
		DBPort:            os.Getenv("DB_PORT"),
		DBDatabase:        os.Getenv("DB_DATABASE"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBRootPassword:    os.Getenv("DB_ROOT_PASSWORD"),
		DBConnectionLimit: os.Getenv("DB_CONNECTION_LIMIT"),
		AuthzImage:        os.Getenv("AUTHZ_IMAGE"),
		AuthzPort:         os.Getenv("AUTHZ_PORT"),
		AuthzDatabase:     os.Getenv("AUTHZ_DATABASE"),
		AuthzClientID:     os.Getenv("AUTHZ_CLIENT_ID"),
		AuthzAdminSecret:  os.Getenv("AUTHZ_ADMIN_SECRET"),
		Port:              os.Getenv("PORT"),
		BuildContext:      os.Getenv("TESTCONTAINERS_BUILD_CONTEXT"),
		Debug:             os.Getenv("DEBUG_CONTAINER") == "true",
	}
	if env.DBImage == "" {
		env.DBImage = defaultDBImage
	}
	if env.BuildContext == "" {
		env.BuildContext = "../.."
	}
	return env
}

// Stack is a running database, Authorizer and configurator
type Stack struct {
	Env        StackEnv
	Network    *testcontainers.DockerNetwork
	Database   testcontainers.Container
	Authorizer testcontainers.Container
	Server     testcontainers.Container
	Builder    testcontainers.Container
	BaseURL    string
	AuthzURL   string
}

// Terminate stops every started container, server first
func (s *Stack) Terminate(ctx context.Context) {
	for _, c := range []struct {
		name      string
		container testcontainers.Container
	}{
		{"configurator", s.Server},
		{"configurator builder", s.Builder},
		{"Authorizer", s.Authorizer},
		{"database", s.Database},
	} {
		if c.container == nil {
			continue
		}
		if err := c.container.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate %s: %v", c.name, err)
		}
	}
	if s.Network != nil {
		if err := s.Network.Remove(ctx); err != nil {
			log.Printf("Failed to remove network: %v", err)
		}
	}
}

// DatabaseConfig points a config at the stack database through its mapped port
func (s *Stack) DatabaseConfig(ctx context.Context) (*config.Config, error) {
	port, err := nat.NewPort("tcp", s.Env.DBPort)
	if err != nil {
		return nil, err
	}
	host, err := s.Database.Host(ctx)
	if err != nil {
		return nil, err
	}
	mapped, err := s.Database.MappedPort(ctx, port)
	if err != nil {
		return nil, err
	}
	return &config.Config{
		DBType:            s.Env.DBType,
		DBHost:            host,
		DBPort:            mapped.Port(),
		DBDatabase:        s.Env.DBDatabase,
		DBUser:            s.Env.DBUser,
		DBPassword:        s.Env.DBPassword,
		DBConnectionLimit: 2,
	}, nil
}

// DockerAvailable reports whether a Docker daemon answers a ping
func DockerAvailable(ctx context.Context) bool {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err = cli.Ping(ctx)
	return err == nil
}

// StartMariaDB starts a throwaway MariaDB for one test and returns a config
// pointing at it. Skips in short mode or without Docker.
func StartMariaDB(t *testing.T) *config.Config {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	if !DockerAvailable(ctx) {
		t.Skip("docker is not available")
	}

	env := StackEnv{
		DBImage:        os.Getenv("DB_IMAGE"),
		DBPort:         "3306",
		DBDatabase:     "configurator",
		DBUser:         "configurator",
		DBPassword:     "configurator",
		DBRootPassword: "root",
	}
	if env.DBImage == "" {
		env.DBImage = defaultDBImage
	}

	db, err := startDatabase(ctx, env, "")
	if err != nil {
		t.Fatalf("Failed to start MariaDB: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate MariaDB: %v", err)
		}
	})

	stack := &Stack{Env: env, Database: db}
	cfg, err := stack.DatabaseConfig(ctx)
	if err != nil {
		t.Fatalf("Failed to resolve MariaDB address: %v", err)
	}
	cfg.DBType = "mariadb"
	cfg.DBConnectionLimit = 4

	if err := waitForMySQL(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBDatabase); err != nil {
		t.Fatalf("MariaDB not ready: %v", err)
	}
	return cfg
}

// StartStack starts the database, the Authorizer and the configurator on one
// network. On failure every container started so far is terminated.
func StartStack(ctx context.Context, env StackEnv) (stack *Stack, err error) {
	stack = &Stack{Env: env}
	defer func() {
		if err != nil {
			stack.Terminate(context.Background())
			stack = nil
		}
	}()

	nw, err := network.New(ctx)
	if err != nil {
		return stack, fmt.Errorf("create network: %w", err)
	}
	stack.Network = nw

	if stack.Database, err = startDatabase(ctx, env, nw.Name); err != nil {
		return stack, fmt.Errorf("start database: %w", err)
	}

	// The Authorizer needs its database; the configurator migrates its own
	cfg, err := stack.DatabaseConfig(ctx)
	if err != nil {
		return stack, err
	}
	if err := initAuthorizerDatabase(env, cfg.DBHost, cfg.DBPort); err != nil {
		return stack, fmt.Errorf("initialize databases: %w", err)
	}

	if stack.Authorizer, err = startAuthorizer(ctx, env, nw.Name); err != nil {
		return stack, fmt.Errorf("start Authorizer: %w", err)
	}
	if stack.AuthzURL, err = endpoint(ctx, stack.Authorizer, env.AuthzPort); err != nil {
		return stack, err
	}
	log.Printf("AUTHZ_URL=%s", stack.AuthzURL)

	request, builder, err := configuratorRequest(ctx, env, nw.Name)
	stack.Builder = builder
	if err != nil {
		return stack, err
	}
	stack.Server, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: request,
		Started:          true,
	})
	if err != nil {
		return stack, fmt.Errorf("start configurator: %w", err)
	}
	if stack.BaseURL, err = endpoint(ctx, stack.Server, env.Port); err != nil {
		return stack, err
	}
	log.Printf("BASE_URL=%s", stack.BaseURL)

	return stack, nil
}

func startDatabase(ctx context.Context, env StackEnv, networkName string) (testcontainers.Container, error) {
	port, err := nat.NewPort("tcp", env.DBPort)
	if err != nil {
		return nil, err
	}

	request := testcontainers.ContainerRequest{
		Image:        env.DBImage,
		ExposedPorts: []string{string(port)},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": env.DBRootPassword,
			"MYSQL_DATABASE":      env.DBDatabase,
			"MYSQL_USER":          env.DBUser,
			"MYSQL_PASSWORD":      env.DBPassword,
		},
		WaitingFor: wait.ForListeningPort(port).WithStartupTimeout(90 * time.Second),
	}
	if networkName != "" {
		request.Networks = []string{networkName}
		request.NetworkAliases = map[string][]string{networkName: {env.DBHost}}
	}

	return testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: request,
		Started:          true,
	})
}

func startAuthorizer(ctx context.Context, env StackEnv, networkName string) (testcontainers.Container, error) {
	port, err := nat.NewPort("tcp", env.AuthzPort)
	if err != nil {
		return nil, err
	}

	logLevel := "info"
	if env.Debug {
		logLevel = "debug"
	}

	return testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        env.AuthzImage,
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"ENV":           "production",
				"CLIENT_ID":     env.AuthzClientID,
				"PORT":          env.AuthzPort,
				"DATABASE_TYPE": env.DBType,
				"DATABASE_NAME": env.AuthzDatabase,
				"DATABASE_URL": fmt.Sprintf("root:%s@tcp(%s:%s)/%s",
					env.DBRootPassword, env.DBHost, env.DBPort, env.AuthzDatabase),
				"ADMIN_SECRET":  env.AuthzAdminSecret,
				"ROLES":         "admin,user",
				"DEFAULT_ROLES": "user",
				"LOG_LEVEL":     logLevel,
			},
			WaitingFor:     wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(10 * time.Second),
			Networks:       []string{networkName},
			NetworkAliases: map[string][]string{networkName: {authzNetworkAlias}},
		},
		Started: true,
	})
}

// configuratorRequest describes the configurator container, building the
// image first when it is not present. The builder container is returned so
// it can be terminated with the stack.
func configuratorRequest(ctx context.Context, env StackEnv, networkName string) (testcontainers.ContainerRequest, testcontainers.Container, error) {
	port, err := nat.NewPort("tcp", env.Port)
	if err != nil {
		return testcontainers.ContainerRequest{}, nil, err
	}

	request := testcontainers.ContainerRequest{
		ExposedPorts: []string{string(port)},
		Env: map[string]string{
			"DB_TYPE":             env.DBType,
			"DB_HOST":             env.DBHost,
			"DB_PORT":             env.DBPort,
			"DB_DATABASE":         env.DBDatabase,
			"DB_USER":             env.DBUser,
			"DB_PASSWORD":         env.DBPassword,
			"DB_CONNECTION_LIMIT": env.DBConnectionLimit,
			"AUTHZ_URL":           fmt.Sprintf("http://%s:%s", authzNetworkAlias, env.AuthzPort),
			"AUTHZ_CLIENT_ID":     env.AuthzClientID,
			"SEED_PRESETS":        "true",
			"PORT":                env.Port,
		},
		WaitingFor: wait.ForHTTP("/api/health").WithPort(port).WithStartupTimeout(30 * time.Second),
		Networks:   []string{networkName},
	}

	if env.Debug {
		request.ExposedPorts = append(request.ExposedPorts, debuggerPort)
		request.HostConfigModifier = func(hostConfig *container.HostConfig) {
			hostConfig.PortBindings = nat.PortMap{
				debuggerPort: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: "2345"}},
			}
			hostConfig.CapAdd = []string{"SYS_PTRACE"}
			hostConfig.SecurityOpt = []string{"apparmor:unconfined"}
		}
		request.WaitingFor = wait.ForLog("API server listening at: [::]:2345").WithStartupTimeout(5 * time.Minute)
		request.Entrypoint = []string{
			"/usr/local/bin/dlv", "--listen=:2345", "--headless=true", "--api-version=2",
			"--accept-multiclient", "exec", "./configurator",
		}
	}

	exists, err := imageExists(ctx, configuratorImage)
	if err != nil {
		return request, nil, fmt.Errorf("check image %s: %w", configuratorImage, err)
	}
	if exists {
		log.Printf("Image %s exists, reusing...", configuratorImage)
		request.Image = configuratorImage
		return request, nil, nil
	}

	reaperSessionID := uuid.New().String()
	buildArgs := map[string]*string{"RESOURCE_REAPER_SESSION_ID": &reaperSessionID}
	if env.Debug {
		debug := "true"
		buildArgs["DEBUG"] = &debug
	}
	fromDockerfile := func(repo, tag, target string, keep bool) testcontainers.FromDockerfile {
		return testcontainers.FromDockerfile{
			Context:    env.BuildContext,
			Dockerfile: "Dockerfile",
			Repo:       repo,
			Tag:        tag,
			KeepImage:  keep,
			BuildArgs:  buildArgs,
			BuildOptionsModifier: func(opts *build.ImageBuildOptions) {
				opts.Target = target
			},
			PrintBuildLog: true,
		}
	}

	log.Printf("Image %s does not exist, building...", configuratorImage)
	builder, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			FromDockerfile: fromDockerfile("configurator-test-builder", "latest", "builder", false),
		},
	})
	if err != nil {
		return request, builder, fmt.Errorf("build configurator builder: %w", err)
	}

	repo, tag, _ := strings.Cut(configuratorImage, ":")
	request.FromDockerfile = fromDockerfile(repo, tag, "runtime", true)
	return request, builder, nil
}

func endpoint(ctx context.Context, c testcontainers.Container, containerPort string) (string, error) {
	port, err := nat.NewPort("tcp", containerPort)
	if err != nil {
		return "", err
	}
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := c.MappedPort(ctx, port)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s:%s", host, mapped.Port()), nil
}

func waitForMySQL(user, password, host, port, database string) error {
	db, err := sql.Open("mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", user, password, host, port, database))
	if err != nil {
		return err
	}
	defer db.Close()

	for i := 0; i < dbReadyPingAttempts; i++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Second)
	}
	return fmt.Errorf("not ready after %d seconds: %w", dbReadyPingAttempts, err)
}

func initAuthorizerDatabase(env StackEnv, host, port string) error {
	if err := waitForMySQL("root", env.DBRootPassword, host, port, ""); err != nil {
		return err
	}

	db, err := sql.Open("mysql", fmt.Sprintf("root:%s@tcp(%s:%s)/", env.DBRootPassword, host, port))
	if err != nil {
		return err
	}
	defer db.Close()

	for _, q := range []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", env.AuthzDatabase),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.authorizer_users (id CHAR(36) NOT NULL PRIMARY KEY)", env.AuthzDatabase),
		"FLUSH PRIVILEGES",
	} {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("%w : when executing > %s", err, q)
		}
	}
	return nil
}

func imageExists(ctx context.Context, imageName string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}

	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == imageName {
				return true, nil
			}
		}
	}
	return false, nil
}
