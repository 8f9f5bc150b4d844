package log

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// patternFormatter renders entries through a pattern with the placeholders
// %time, %level, %field, %msg, %caller and %n.
type patternFormatter struct {
	pattern string
	time    string
}

func (f *patternFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	r := strings.NewReplacer(
		"%time", entry.Time.Format(f.time),
		"%level", entry.Level.String(),
		"%field", buildFields(entry),
		"%msg", entry.Message,
		"%caller", caller(entry),
		"%n", "\n",
	)
	out := r.Replace(f.pattern)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return []byte(out), nil
}

// caller renders package/file.go:line of the logging call site.
func caller(entry *logrus.Entry) string {
	if !entry.HasCaller() {
		return "unknown"
	}
	pkg := ""
	if fn := entry.Caller.Function; fn != "" {
		if slash := strings.LastIndex(fn, "/"); slash >= 0 {
			fn = fn[slash+1:]
		}
		if dot := strings.Index(fn, "."); dot >= 0 {
			pkg = fn[:dot]
		}
	}
	return fmt.Sprintf("%s/%s:%d", pkg, filepath.Base(entry.Caller.File), entry.Caller.Line)
}

func buildFields(entry *logrus.Entry) string {
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, k+"="+fmt.Sprint(entry.Data[k]))
	}
	return strings.Join(fields, ",")
}
