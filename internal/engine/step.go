package engine

// Step names do_step's state machine labels (§4.7).
type Step int

const (
	StepPrepareImage Step = iota
	StepSaveImage
	StepPowerdown
	StepCanResume
	StepLoadPS1
	StepDoRestore
	StepAltImage
)

func (s Step) String() string {
	switch s {
	case StepPrepareImage:
		return "STEP_PREPARE_IMAGE"
	case StepSaveImage:
		return "STEP_SAVE_IMAGE"
	case StepPowerdown:
		return "STEP_POWERDOWN"
	case StepCanResume:
		return "STEP_CAN_RESUME"
	case StepLoadPS1:
		return "STEP_LOAD_PS1"
	case StepDoRestore:
		return "STEP_DO_RESTORE"
	case StepAltImage:
		return "STEP_ALT_IMAGE"
	default:
		return "STEP_UNKNOWN"
	}
}
