package reader

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// failureMarker on the first line of the end file means the exit line
// follows on the next line.
const failureMarker = "-1"

func (b *builder) readEndFile() {
	f, err := os.Open(b.cfg.Files.End)
	if err != nil {
		b.logger.Error("could not read millepede end-file", zap.String("path", b.cfg.Files.End), zap.Error(err))
		b.exitMsg = NoExitCode
		return
	}
	defer f.Close()

	b.logger.Info("reading millepede end-file", zap.String("path", b.cfg.Files.End))
	sc := newScanner(f)
	var line string
	if sc.Scan() {
		line = sc.Text()
	}
	if strings.Contains(line, failureMarker) {
		line = ""
		if sc.Scan() {
			line = sc.Text()
		}
	}
	if err := sc.Err(); err != nil {
		b.logger.Error("scan end-file", zap.Error(err))
	}

	b.exitMsg = line
	if fields := strings.Fields(line); len(fields) > 0 {
		code, err := strconv.Atoi(fields[0])
		if err != nil {
			b.logger.Warn("end-file exit code is not an integer", zap.String("token", fields[0]))
		} else {
			b.exitCode = code
		}
	}
	b.logger.Info("pede exit code", zap.Int("exit_code", b.exitCode), zap.String("exit_message", b.exitMsg))
}
