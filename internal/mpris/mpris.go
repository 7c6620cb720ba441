// Package mpris reads playback state from MPRIS media players over the D-Bus
// session bus.
package mpris

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	busNamePrefix = "org.mpris.MediaPlayer2."
	objectPath    = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	playerIface   = "org.mpris.MediaPlayer2.Player"

	dbusListNames    = "org.freedesktop.DBus.ListNames"
	dbusNameHasOwner = "org.freedesktop.DBus.NameHasOwner"
	statusPlaying    = "Playing"
	statusPaused     = "Paused"
)

var (
	// ErrNoPlayer means no MPRIS player is on the bus
	ErrNoPlayer = errors.New("no mpris player found")

	// ErrMetadata means the player's Metadata property could not be read
	ErrMetadata = errors.New("failed to read player metadata")

	// ErrPosition means the player does not report a usable position
	ErrPosition = errors.New("failed to read player position")
)

// Bus is a session bus connection used to discover players.
type Bus struct {
	conn *dbus.Conn
}

func Connect() (*Bus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Bus{conn: conn}, nil
}

func (b *Bus) Close() error {
	return b.conn.Close()
}

// Players lists the bus names of all MPRIS players, sorted.
func (b *Bus) Players() ([]string, error) {
	var names []string
	if err := b.conn.BusObject().Call(dbusListNames, 0).Store(&names); err != nil {
		return nil, fmt.Errorf("failed to list bus names: %w", err)
	}

	var players []string
	for _, name := range names {
		if strings.HasPrefix(name, busNamePrefix) {
			players = append(players, name)
		}
	}
	sort.Strings(players)
	return players, nil
}

// handle for a player by its bus name
func (b *Bus) Player(name string) *Player {
	return &Player{
		name: name,
		obj:  b.conn.Object(name, objectPath),
		bus:  b.conn.BusObject(),
	}
}

// FindActive picks a player, preferring one that is playing, then one that is
// paused, then any. When preferred is set only names containing it are
// considered.
func (b *Bus) FindActive(preferred string) (*Player, error) {
	names, err := b.Players()
	if err != nil {
		return nil, err
	}

	players := make([]*Player, 0, len(names))
	for _, name := range names {
		if preferred != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(preferred)) {
			continue
		}
		players = append(players, b.Player(name))
	}

	player := pickActive(players)
	if player == nil {
		return nil, ErrNoPlayer
	}
	return player, nil
}

func pickActive(players []*Player) *Player {
	if len(players) == 0 {
		return nil
	}

	var paused *Player
	for _, p := range players {
		status, err := p.PlaybackStatus()
		if err != nil {
			continue
		}
		switch status {
		case statusPlaying:
			return p
		case statusPaused:
			if paused == nil {
				paused = p
			}
		}
	}
	if paused != nil {
		return paused
	}
	return players[0]
}
