package mpris

import (
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

// Player is one MPRIS player. It implements playback.Oracle.
type Player struct {
	name string
	obj  dbus.BusObject
	bus  dbus.BusObject
}

// bus name, e.g. org.mpris.MediaPlayer2.mpv
func (p *Player) Name() string {
	return p.name
}

// Identity is the current track's url followed by its title.
func (p *Player) Identity() (string, error) {
	meta, err := p.Metadata()
	if err != nil {
		return "", err
	}
	return meta.Identity(), nil
}

// short name without the MPRIS prefix
func (p *Player) ShortName() string {
	return strings.TrimPrefix(p.name, busNamePrefix)
}

// Active reports whether the player still owns its bus name.
func (p *Player) Active() bool {
	var has bool
	if err := p.bus.Call(dbusNameHasOwner, 0, p.name).Store(&has); err != nil {
		return false
	}
	return has
}

func (p *Player) PlaybackStatus() (string, error) {
	prop, err := p.obj.GetProperty(playerIface + ".PlaybackStatus")
	if err != nil {
		return "", fmt.Errorf("failed to get playback status: %w", err)
	}
	status, ok := prop.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected playback status type %T", prop.Value())
	}
	return status, nil
}

// Position is the playback offset in the current track.
func (p *Player) Position() (time.Duration, error) {
	prop, err := p.obj.GetProperty(playerIface + ".Position")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPosition, err)
	}

	micros, ok := microseconds(prop.Value())
	if !ok {
		return 0, fmt.Errorf("%w: unexpected type %T", ErrPosition, prop.Value())
	}
	if micros < 0 {
		return 0, nil
	}
	return time.Duration(micros) * time.Microsecond, nil
}

func (p *Player) Metadata() (*Metadata, error) {
	prop, err := p.obj.GetProperty(playerIface + ".Metadata")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
	}

	values, ok := prop.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected type %T", ErrMetadata, prop.Value())
	}
	return parseMetadata(values), nil
}
