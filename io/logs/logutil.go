// Package logs configures the process-wide logrus logger: output format, an optional
// persistent log file, and masking of credentials in logged URLs.
package logs

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	joonix "github.com/joonix/log"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// ErrUnknownFormat is returned for a log format other than text, fluentd or json.
var ErrUnknownFormat = errors.New("unknown log format")

// Formatter returns the logrus formatter for a named format. Colors are disabled for
// text output written to a file, where ANSI codes are noise.
func Formatter(format string, disableColors bool) (logrus.Formatter, error) {
	switch format {
	case "text":
		formatter := new(prefixed.TextFormatter)
		formatter.TimestampFormat = "2006-01-02 15:04:05"
		formatter.FullTimestamp = true
		formatter.DisableColors = disableColors
		return formatter, nil
	case "fluentd":
		return joonix.NewFormatter(), nil
	case "json":
		return &logrus.JSONFormatter{}, nil
	default:
		return nil, errors.Wrap(ErrUnknownFormat, format)
	}
}

// ConfigurePersistentLogging adds a log-to-file writer. File content is identical to stdout.
// Missing parent directories are created owner-only.
func ConfigurePersistentLogging(logFileName string) error {
	logrus.WithField("logFileName", logFileName).Info("Logs will be made persistent")
	if err := os.MkdirAll(filepath.Dir(logFileName), 0700); err != nil {
		return errors.Wrap(err, "could not create log directory")
	}
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec G304
	if err != nil {
		return err
	}
	logrus.SetOutput(io.MultiWriter(logrus.StandardLogger().Out, f))
	logrus.Info("File logging initialized")
	return nil
}

// MaskCredentialsLogging masks the url credentials before logging for security purpose
// [scheme:][//[userinfo@]host][/]path[?query][#fragment] -->  [scheme:][//[***]host][/***][#***]
// if the format is not matched nothing is done, string is returned as is.
func MaskCredentialsLogging(currURL string) string {
	u, err := url.Parse(currURL)
	if err != nil {
		return currURL
	}
	masked := currURL
	if u.User != nil {
		masked = strings.Replace(masked, u.User.String(), "***", 1)
	}
	if len(u.RequestURI()) > 1 {
		masked = strings.Replace(masked, u.RequestURI(), "/***", 1)
	}
	if len(u.Fragment) > 0 {
		masked = strings.Replace(masked, u.RawFragment, "***", 1)
	}
	return masked
}
