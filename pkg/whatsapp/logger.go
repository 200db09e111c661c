package whatsapp

import (
	"github.com/sirupsen/logrus"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// logAdapter routes whatsmeow's logs through logrus.
type logAdapter struct {
	entry *logrus.Entry
}

func newLogAdapter(logger *logrus.Logger, module string) waLog.Logger {
	return &logAdapter{entry: logger.WithField("module", "whatsmeow/"+module)}
}

func (l *logAdapter) Warnf(msg string, args ...interface{})  { l.entry.Warnf(msg, args...) }
func (l *logAdapter) Errorf(msg string, args ...interface{}) { l.entry.Errorf(msg, args...) }
func (l *logAdapter) Infof(msg string, args ...interface{})  { l.entry.Infof(msg, args...) }
func (l *logAdapter) Debugf(msg string, args ...interface{}) { l.entry.Debugf(msg, args...) }

func (l *logAdapter) Sub(module string) waLog.Logger {
	current, _ := l.entry.Data["module"].(string)
	return &logAdapter{entry: l.entry.WithField("module", current+"/"+module)}
}
