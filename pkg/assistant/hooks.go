package assistant

// Hooks are optional callbacks around the turn lifecycle. Nil fields
// are skipped.
type Hooks struct {
	// OnStart runs once before the main loop.
	OnStart func()

	// OnWake runs when the wake word is detected, before the
	// acknowledgment and the full listen.
	OnWake func()

	// BeforeListen runs right before the full listen starts.
	BeforeListen func()

	// AfterListen runs after the full listen returns, with whatever
	// text was captured. Empty text means nothing was heard.
	AfterListen func(text string)

	// OnHeard runs with the captured user text before thinking.
	OnHeard func(text string)

	// BeforeThink may rewrite the user text before it reaches the
	// model.
	BeforeThink func(text string) string

	// AfterThink runs after the full response is known.
	AfterThink func(reply string)

	// ParseResponse may rewrite the model output, e.g. stripping
	// markup the synthesizer cannot pronounce.
	ParseResponse func(reply string) string

	// BeforeSay may rewrite the text handed to the synthesizer.
	BeforeSay func(reply string) string

	// AfterSay runs after playback completes.
	AfterSay func()

	// OnRoundEnd runs after every turn, spoken or skipped.
	OnRoundEnd func()

	// OnStop runs once during shutdown.
	OnStop func()
}

func (h *Hooks) onStart() {
	if h.OnStart != nil {
		h.OnStart()
	}
}

func (h *Hooks) onWake() {
	if h.OnWake != nil {
		h.OnWake()
	}
}

func (h *Hooks) beforeListen() {
	if h.BeforeListen != nil {
		h.BeforeListen()
	}
}

func (h *Hooks) afterListen(text string) {
	if h.AfterListen != nil {
		h.AfterListen(text)
	}
}

func (h *Hooks) onHeard(text string) {
	if h.OnHeard != nil {
		h.OnHeard(text)
	}
}

func (h *Hooks) beforeThink(text string) string {
	if h.BeforeThink != nil {
		return h.BeforeThink(text)
	}
	return text
}

func (h *Hooks) afterThink(reply string) {
	if h.AfterThink != nil {
		h.AfterThink(reply)
	}
}

func (h *Hooks) parseResponse(reply string) string {
	if h.ParseResponse != nil {
		return h.ParseResponse(reply)
	}
	return reply
}

func (h *Hooks) beforeSay(reply string) string {
	if h.BeforeSay != nil {
		return h.BeforeSay(reply)
	}
	return reply
}

func (h *Hooks) afterSay() {
	if h.AfterSay != nil {
		h.AfterSay()
	}
}

func (h *Hooks) onRoundEnd() {
	if h.OnRoundEnd != nil {
		h.OnRoundEnd()
	}
}

func (h *Hooks) onStop() {
	if h.OnStop != nil {
		h.OnStop()
	}
}
