package core

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger 按级别和格式创建 logrus 日志器
func NewLogger(level, format string, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)

	if format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	if out != nil {
		log.SetOutput(out)
	}
	return log, nil
}
