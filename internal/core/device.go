package core

// DeviceType indicates the kind of playback device.
type DeviceType string

const (
	DeviceTypeSpeaker  DeviceType = "speaker"
	DeviceTypeComputer DeviceType = "computer"
	DeviceTypePhone    DeviceType = "phone"
	DeviceTypeTV       DeviceType = "tv"
	DeviceTypeOther    DeviceType = "other"
)

// Device represents a playback device reported by the music service.
type Device struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Type         DeviceType `json:"type"`
	IsActive     bool       `json:"is_active"`
	IsRestricted bool       `json:"is_restricted"`
	Volume       *int       `json:"volume,omitempty"`
}
