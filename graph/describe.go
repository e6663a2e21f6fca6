package graph

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-entrain/dsp/core"
)

// Describe renders the master bus and every layer topology as text. The
// output depends only on the graph state, so it is stable across runs.
func (m *Manager) Describe() string {
	var sb strings.Builder

	if m.master == nil {
		sb.WriteString("master (not built)\n")
	} else {
		ready := "pending"
		if m.master.reverb.Ready() {
			ready = "ready"
		}

		fmt.Fprintf(&sb, "master\n")
		fmt.Fprintf(&sb, "  gain %.1f dB -> limiter %.1f dB -> meter -> destination\n",
			m.masterGainDB, m.master.limiter.Threshold())
		fmt.Fprintf(&sb, "  reverb send %.1f dB -> reverb %s %s -> destination\n",
			m.cfg.ReverbSendDB, m.master.reverb.Decay(), ready)
		fmt.Fprintf(&sb, "  inputs %d\n", m.MasterConnections())
	}

	fmt.Fprintf(&sb, "layers %d\n", len(m.order))

	for _, id := range m.order {
		m.layers[id].describe(&sb)
	}

	return sb.String()
}

func (g *LayerGraph) describe(sb *strings.Builder) {
	p := g.params

	state := "stopped"
	if g.started {
		state = "started"
	}

	if p.Muted {
		state += " muted"
	}

	if p.Solo {
		state += " solo"
	}

	fmt.Fprintf(sb, "  %s %s %s\n", p.ID, p.Type, state)

	switch v := g.variant.(type) {
	case *Binaural:
		fmt.Fprintf(sb, "    osc left %s %.2f Hz -> pan %+.2f\n",
			v.Left.Waveform(), v.Left.Frequency().Target(), v.LeftPan.Pan().Target())
		fmt.Fprintf(sb, "    osc right %s %.2f Hz -> pan %+.2f\n",
			v.Right.Waveform(), v.Right.Frequency().Target(), v.RightPan.Pan().Target())
	case *Isochronic:
		lo, hi := v.GateLFO.Range()
		fmt.Fprintf(sb, "    osc %s %.2f Hz -> gate <- lfo %.2f Hz [%g, %g]\n",
			v.Osc.Waveform(), v.Osc.Frequency().Target(), v.GateLFO.Frequency().Target(), lo, hi)
	case *Monaural:
		fmt.Fprintf(sb, "    osc carrier %s %.2f Hz -> x%.2f\n",
			v.Carrier.Waveform(), v.Carrier.Frequency().Target(), v.CarrierHalf.Gain().Target())
		fmt.Fprintf(sb, "    osc beat %s %.2f Hz -> x%.2f\n",
			v.Beat.Waveform(), v.Beat.Frequency().Target(), v.BeatHalf.Gain().Target())
	}

	fmt.Fprintf(sb, "    lowpass %.0f Hz -> gain %.1f dB -> tremolo -> pan %+.2f -> master, reverb send\n",
		g.filter.Cutoff(), core.LinearToDB(g.gain.Gain().Target()), g.pan.Pan().Target())

	if p.LFO.Enabled {
		fmt.Fprintf(sb, "    lfo %s %.2f Hz depth %.0f%%\n", p.LFO.Target, p.LFO.RateHz, p.LFO.Depth)
	} else {
		sb.WriteString("    lfo off\n")
	}
}
