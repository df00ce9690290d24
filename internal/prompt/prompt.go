// Package prompt implements the operator decision layer on a terminal.
package prompt

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"github.com/iconidentify/mediasweep/internal/domain"
)

var modeDescriptions = map[string]string{
	string(domain.ModeFast):    "partial scan of the leading few MB",
	string(domain.ModeTwoPass): "fast scan, deep retry when no streams found",
	string(domain.ModeFull):    "deep scan of the leading ~100MB on every URL",
}

// Terminal asks the operator via interactive prompts. Implements
// runner.DecisionProvider.
type Terminal struct{}

// ChooseMode prompts for a scan mode. An interrupt (ctrl-c) counts as
// declining.
func (Terminal) ChooseMode(pending int, def domain.ScanMode) (domain.ScanMode, bool) {
	question := &survey.Select{
		Message: fmt.Sprintf("Choose scan mode for %d URLs:", pending),
		Options: []string{
			string(domain.ModeFast),
			string(domain.ModeTwoPass),
			string(domain.ModeFull),
		},
		Default: string(def),
		Description: func(value string, _ int) string {
			return modeDescriptions[value]
		},
	}

	var answer string
	if err := survey.AskOne(question, &answer); err != nil {
		return "", false
	}

	mode := domain.ScanMode(answer)
	if !mode.Valid() {
		return "", false
	}
	return mode, true
}

// ConfirmRescan asks whether to requeue invalid records.
func (Terminal) ConfirmRescan(invalid int) bool {
	confirm := &survey.Confirm{
		Message: fmt.Sprintf("Rescan %d invalid files?", invalid),
		Default: false,
	}

	var answer bool
	if err := survey.AskOne(confirm, &answer); err != nil {
		// Interrupt or closed stdin both mean stop.
		return false
	}
	return answer
}
