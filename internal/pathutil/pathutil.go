// Package pathutil manages application file paths and locations
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
)

// Paths holds all application path configurations.
type Paths struct {
	configDir      string
	configFileName string
	dbFileName     string
	socketFileName string
	logFileName    string

	// Computed absolute paths
	configFilePath string
	dbFilePath     string
	socketFilePath string
	logFilePath    string
}

var (
	paths *Paths
	once  sync.Once
)

// Initialize must be called once at program startup.
func Initialize() error {
	var initErr error

	once.Do(func() {
		paths = &Paths{
			configDir:      "notch",
			configFileName: "config.yml",
			dbFileName:     "notch.db",
			socketFileName: "runner.sock",
			logFileName:    "notch.log",
		}

		paths.applyEnvironmentOverrides()
		initErr = paths.computePaths()
	})

	return initErr
}

// Must panics if paths haven't been initialized.
func Must() *Paths {
	if paths == nil {
		panic("pathutil.Initialize() must be called before accessing paths")
	}

	return paths
}

func Dir() string {
	return Must().configDir
}

func ConfigFilePath() string {
	return Must().configFilePath
}

func DBFilePath() string {
	return Must().dbFilePath
}

// SocketPath is where the background runner listens.
func SocketPath() string {
	return Must().socketFilePath
}

func LogFilePath() string {
	return Must().logFilePath
}

func (p *Paths) applyEnvironmentOverrides() {
	env := strings.TrimSpace(os.Getenv("NOTCH_ENV"))
	if env != "" {
		p.configFileName = fmt.Sprintf("config_%s.yml", env)
		p.dbFileName = fmt.Sprintf("notch_%s.db", env)
		p.socketFileName = fmt.Sprintf("runner_%s.sock", env)
		p.logFileName = fmt.Sprintf("notch_%s.log", env)
	}
}

func (p *Paths) computePaths() error {
	var err error

	relPath := filepath.Join(p.configDir, p.configFileName)

	p.configFilePath, err = xdg.ConfigFile(relPath)
	if err != nil {
		return err
	}

	p.dbFilePath, err = xdg.DataFile(filepath.Join(p.configDir, p.dbFileName))
	if err != nil {
		return err
	}

	dataDir := filepath.Dir(p.dbFilePath)

	p.logFilePath = filepath.Join(dataDir, "log", p.logFileName)

	p.socketFilePath, err = xdg.RuntimeFile(
		filepath.Join(p.configDir, p.socketFileName),
	)
	if err != nil {
		p.socketFilePath = filepath.Join(dataDir, p.socketFileName)
	}

	return nil
}
