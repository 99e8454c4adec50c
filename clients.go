package via

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// ClientRecord describes one connected browser for the /_stats endpoint.
// Records are created on the first SSE connect, not on page GET, so the
// registry only ever lists tabs that actually attached a stream.
type ClientRecord struct {
	ID          string    `json:"id"`
	Identicon   string    `json:"identicon"`
	ConnectedAt time.Time `json:"connected_at"`
	RemoteAddr  string    `json:"remote_addr"`
}

func (v *V) registerClient(id, remoteAddr string) {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()
	if _, ok := v.clients[id]; ok {
		return
	}
	v.clients[id] = ClientRecord{
		ID:          id,
		Identicon:   identiconDataURI(id),
		ConnectedAt: time.Now(),
		RemoteAddr:  remoteAddr,
	}
}

func (v *V) dropClient(id string) {
	v.stateMu.Lock()
	delete(v.clients, id)
	v.stateMu.Unlock()
}

func (v *V) clientSnapshot() map[string]ClientRecord {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	out := make(map[string]ClientRecord, len(v.clients))
	for id, rec := range v.clients {
		out[id] = rec
	}
	return out
}

// identiconDataURI renders a deterministic 5x5 identicon for a context id
// as an inline SVG data URI. The left three columns come from the id's
// hash and are mirrored for symmetry, github-avatar style.
func identiconDataURI(id string) string {
	sum := sha256.Sum256([]byte(id))
	color := fmt.Sprintf("#%02x%02x%02x", sum[0], sum[1], sum[2])

	var cells strings.Builder
	bit := 0
	for col := 0; col < 3; col++ {
		for row := 0; row < 5; row++ {
			on := sum[3+bit/8]>>(bit%8)&1 == 1
			bit++
			if !on {
				continue
			}
			fmt.Fprintf(&cells, `<rect x="%d" y="%d" width="1" height="1"/>`, col, row)
			if col < 2 {
				fmt.Fprintf(&cells, `<rect x="%d" y="%d" width="1" height="1"/>`, 4-col, row)
			}
		}
	}
	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 5 5" fill="%s">%s</svg>`,
		color, cells.String(),
	)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
