package cmd

import (
	"bytes"
	"fmt"
	"os"

	"orderflow/internal/core/domain/model/workflow"

	"gopkg.in/yaml.v3"
)

// TemplateFile is the YAML form of a workflow definition read by seed-template.
//
//	code: garment-express
//	stages:
//	  - {code: RECEIVED, phase: intake, sequence: 10}
//	  - {code: DELIVERED, phase: closed, sequence: 20, terminal: true}
//	transitions:
//	  - from: RECEIVED
//	    to: DELIVERED
//	    allowManual: true
//	    requiresPod: true
//	    effects: [notify_customer]
type TemplateFile struct {
	Code        string           `yaml:"code"`
	Stages      []StageFile      `yaml:"stages"`
	Transitions []TransitionFile `yaml:"transitions"`
}

type StageFile struct {
	Code     string `yaml:"code"`
	Phase    string `yaml:"phase"`
	Sequence int    `yaml:"sequence"`
	Terminal bool   `yaml:"terminal"`
}

type TransitionFile struct {
	From            string   `yaml:"from"`
	To              string   `yaml:"to"`
	AllowManual     bool     `yaml:"allowManual"`
	AutoWhenDone    bool     `yaml:"autoWhenDone"`
	RequiresScanOK  bool     `yaml:"requiresScanOk"`
	RequiresPOD     bool     `yaml:"requiresPod"`
	RequiresInvoice bool     `yaml:"requiresInvoice"`
	PreConditions   []string `yaml:"preConditions"`
	Effects         []string `yaml:"effects"`
}

// ParseTemplateFile decodes a definition, rejecting unknown keys.
func ParseTemplateFile(input []byte) (TemplateFile, error) {
	var tf TemplateFile
	dec := yaml.NewDecoder(bytes.NewReader(input))
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return TemplateFile{}, fmt.Errorf("decode template file: %w", err)
	}
	return tf, nil
}

func LoadTemplateFile(path string) (TemplateFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return TemplateFile{}, fmt.Errorf("read template file: %w", err)
	}
	return ParseTemplateFile(raw)
}

// DefaultTemplateFile describes the built-in garment workflow.
func DefaultTemplateFile() TemplateFile {
	stages, transitions := workflow.DefaultDefinition()
	tf := TemplateFile{Code: workflow.DefaultTemplateCode}
	for _, s := range stages {
		tf.Stages = append(tf.Stages, StageFile{
			Code:     s.Code.String(),
			Phase:    string(s.Phase),
			Sequence: s.Sequence,
			Terminal: s.Terminal,
		})
	}
	for _, t := range transitions {
		effects := make([]string, 0, len(t.Effects))
		for _, e := range t.Effects {
			effects = append(effects, string(e))
		}
		tf.Transitions = append(tf.Transitions, TransitionFile{
			From:            t.From.String(),
			To:              t.To.String(),
			AllowManual:     t.AllowManual,
			AutoWhenDone:    t.AutoWhenDone,
			RequiresScanOK:  t.RequiresScanOK,
			RequiresPOD:     t.RequiresPOD,
			RequiresInvoice: t.RequiresInvoice,
			PreConditions:   append([]string(nil), t.PreConditions...),
			Effects:         effects,
		})
	}
	return tf
}

// Definition converts the file into domain stages and transitions. The graph
// itself is validated when the template is built.
func (tf TemplateFile) Definition() ([]workflow.Stage, []workflow.Transition) {
	stages := make([]workflow.Stage, 0, len(tf.Stages))
	for _, s := range tf.Stages {
		stages = append(stages, workflow.Stage{
			Code:     workflow.StatusCode(s.Code),
			Phase:    workflow.Phase(s.Phase),
			Sequence: s.Sequence,
			Terminal: s.Terminal,
		})
	}

	transitions := make([]workflow.Transition, 0, len(tf.Transitions))
	for _, t := range tf.Transitions {
		var effects []workflow.Effect
		for _, e := range t.Effects {
			effects = append(effects, workflow.Effect(e))
		}
		transitions = append(transitions, workflow.Transition{
			From:            workflow.StatusCode(t.From),
			To:              workflow.StatusCode(t.To),
			AllowManual:     t.AllowManual,
			AutoWhenDone:    t.AutoWhenDone,
			RequiresScanOK:  t.RequiresScanOK,
			RequiresPOD:     t.RequiresPOD,
			RequiresInvoice: t.RequiresInvoice,
			PreConditions:   append([]string(nil), t.PreConditions...),
			Effects:         effects,
		})
	}
	return stages, transitions
}
