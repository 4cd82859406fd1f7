package domain

// Capability names one optional parameter a tool may declare support for.
type Capability string

const (
	CapInputImages    Capability = "input_images"
	CapNumOutputs     Capability = "num_outputs"
	CapNegativePrompt Capability = "negative_prompt"
	CapGuidanceScale  Capability = "guidance_scale"
	CapStyle          Capability = "style"
	CapDuration       Capability = "duration"
	CapResolution     Capability = "resolution"
	CapMode           Capability = "mode"
	CapStartImage     Capability = "start_image"
	CapEndImage       Capability = "end_image"
	CapAudioRef       Capability = "audio_ref"
	CapVideoRef       Capability = "video_ref"
	CapVoice          Capability = "voice"
)

// Capabilities is the static set of optional parameters a tool accepts.
// It is computed once at registration time and read-only thereafter.
type Capabilities map[Capability]bool

// Caps builds a capability set from a list.
func Caps(caps ...Capability) Capabilities {
	set := make(Capabilities, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	return set
}

// Has reports whether the tool declared support for c. A nil set supports nothing.
func (c Capabilities) Has(cap Capability) bool {
	return c[cap]
}

// ToolDescriptor identifies one callable generation tool. Built once per
// tool at registration time; read-only thereafter.
type ToolDescriptor struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"display_name"`
	Provider    string       `json:"provider"`
	Model       string       `json:"model"`
	Media       MediaType    `json:"media"`
	Caps        Capabilities `json:"-"`
	// RequiresEnvelope marks tools whose schema declares a call-identifier
	// field that must be injected by the dispatcher rather than supplied by
	// the caller.
	RequiresEnvelope bool `json:"-"`
	// Unavailable marks catalogued tools that cannot be invoked yet.
	// Dispatching to one is an expected outcome, not an error.
	Unavailable bool `json:"unavailable,omitempty"`
	// NotConfigured marks tools whose provider credential is missing or a
	// placeholder in the active configuration. Calls fail fast with a
	// configuration error naming the provider, instead of reaching the
	// backend.
	NotConfigured bool `json:"not_configured,omitempty"`
}
