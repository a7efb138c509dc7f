package locus

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DefaultPageSize = 1024
	// DefaultMaxPages covers the full 24-bit entity index space.
	DefaultMaxPages = (MaxEntityIndex + 1) / DefaultPageSize
)

// Config holds global configuration for storage groups.
// Changes only affect groups created afterwards.
var Config config = newConfig()

type config struct {
	pageSize int
	maxPages int
	logger   *logrus.Logger
}

func newConfig() config {
	return config{
		pageSize: DefaultPageSize,
		maxPages: DefaultMaxPages,
		logger:   newLogger(),
	}
}

// newLogger builds the package logger from LOCUS_LOG_LEVEL and LOCUS_LOG_FORMAT.
func newLogger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(os.Getenv("LOCUS_LOG_LEVEL"))
	if err != nil {
		level = logrus.WarnLevel
	}
	log.SetLevel(level)
	if strings.ToLower(os.Getenv("LOCUS_LOG_FORMAT")) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stderr)
	return log
}

// SetPageSize sets the number of sparse entries per page for new groups
func (c *config) SetPageSize(n int) {
	if n > 0 {
		c.pageSize = n
	}
}

// SetMaxPages sets the sparse page budget for new groups
func (c *config) SetMaxPages(n int) {
	if n > 0 {
		c.maxPages = n
	}
}

// SetLogger replaces the package logger. A nil logger is ignored.
func (c *config) SetLogger(l *logrus.Logger) {
	if l != nil {
		c.logger = l
	}
}

func (c *config) Logger() *logrus.Logger {
	return c.logger
}

func (c *config) PageSize() int {
	return c.pageSize
}

func (c *config) MaxPages() int {
	return c.maxPages
}
