package validation

import "github.com/joseph-ayodele/biodata-tracker/constants"

// Action is a validation workflow operation.
type Action string

const (
	ActionApprove        Action = "approve"
	ActionReject         Action = "reject"
	ActionFlagForReview  Action = "flag_for_review"
	ActionEditAndApprove Action = "edit_and_approve"
	ActionReOCR          Action = "re_ocr"
	ActionAutoApprove    Action = "auto_approve"
)

var transitions = map[constants.OCRStatus]map[Action]constants.OCRStatus{
	constants.OCRStatusPending: {
		ActionApprove:        constants.OCRStatusApproved,
		ActionReject:         constants.OCRStatusRejected,
		ActionFlagForReview:  constants.OCRStatusNeedsReview,
		ActionEditAndApprove: constants.OCRStatusApproved,
		ActionAutoApprove:    constants.OCRStatusApproved,
		ActionReOCR:          constants.OCRStatusPending,
	},
	constants.OCRStatusNeedsReview: {
		ActionApprove:        constants.OCRStatusApproved,
		ActionReject:         constants.OCRStatusRejected,
		ActionEditAndApprove: constants.OCRStatusApproved,
		ActionAutoApprove:    constants.OCRStatusApproved,
		ActionReOCR:          constants.OCRStatusPending,
	},
	constants.OCRStatusApproved: {
		ActionReOCR: constants.OCRStatusPending,
	},
	constants.OCRStatusRejected: {
		ActionReOCR: constants.OCRStatusPending,
	},
}

// Next returns the status reached by applying action in from.
func Next(from constants.OCRStatus, action Action) (constants.OCRStatus, bool) {
	to, ok := transitions[from][action]
	return to, ok
}

// sourceStatuses lists the statuses from which action is allowed.
func sourceStatuses(action Action) []constants.OCRStatus {
	var out []constants.OCRStatus
	for _, from := range []constants.OCRStatus{
		constants.OCRStatusPending,
		constants.OCRStatusNeedsReview,
		constants.OCRStatusApproved,
		constants.OCRStatusRejected,
	} {
		if _, ok := transitions[from][action]; ok {
			out = append(out, from)
		}
	}
	return out
}
