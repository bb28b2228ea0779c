package main

import (
	"io"

	"codeberg.org/mutker/scrapster/internal/broadcast"
	"codeberg.org/mutker/scrapster/internal/logger"
	"codeberg.org/mutker/scrapster/internal/metrics"
	"github.com/rs/zerolog"
)

// monitor logs every snapshot until the subscription closes.
func monitor(sub *broadcast.Subscription[metrics.Snapshot], log logger.Logger) {
	var dropped uint64
	for snap := range sub.C() {
		log.Info().EmbedObject(snap).Msg("")

		if n := sub.Dropped(); n > dropped {
			log.Warn().Uint64("dropped", n-dropped).Msg("Monitor fell behind, snapshots skipped")
			dropped = n
		}
	}
}

// stream writes one JSON object per snapshot to w until the
// subscription closes.
func stream(w io.Writer, sub *broadcast.Subscription[metrics.Snapshot]) {
	out := zerolog.New(w)
	for snap := range sub.C() {
		out.Log().EmbedObject(snap).Send()
	}
}

func writeJSON(w io.Writer, snap metrics.Snapshot) {
	out := zerolog.New(w)
	out.Log().EmbedObject(snap).Send()
}
