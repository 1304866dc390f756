package reader

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	nrecMarker   = "NREC ="
	binaryMarker = "C_binary"
)

func (b *builder) readLogFile() {
	minRecords := b.cfg.Thresholds.MinRecords

	f, err := os.Open(b.cfg.Files.Log)
	if err != nil {
		b.logger.Error("could not read millepede log-file", zap.String("path", b.cfg.Files.Log), zap.Error(err))
		b.tally.UpdateDB = false
		b.nrec = 0
		b.belowMin = minRecords > 0
		return
	}
	defer f.Close()

	b.logger.Info("reading millepede log-file", zap.String("path", b.cfg.Files.Log))
	sc := newScanner(f)
	for sc.Scan() {
		line := sc.Text()

		if strings.Contains(line, nrecMarker) {
			// <token> <token> <Nrec>
			fields := strings.Fields(line)
			if len(fields) < 3 {
				b.logger.Warn("record count line too short", zap.String("line", line))
			} else if n, err := strconv.Atoi(fields[2]); err != nil {
				b.logger.Warn("record count is not an integer", zap.String("token", fields[2]))
			} else {
				b.nrec = n
				if n < minRecords {
					b.logger.Info("record count below minimum",
						zap.Int("nrec", n), zap.Int("min_records", minRecords))
					b.tally.UpdateDB = false
					b.belowMin = true
				}
			}
		}

		if strings.Contains(line, binaryMarker) {
			b.binaries++
		}
	}
	if err := sc.Err(); err != nil {
		b.logger.Error("scan log-file", zap.Error(err))
	}
}
