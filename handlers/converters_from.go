package handlers

import "myregistry/domain"

// fromRegisterRequest extracts the instance metadata. Absent or null meta becomes {}.
func fromRegisterRequest(req RegisterRequest) domain.Meta {
	if req.Meta == nil {
		return domain.Meta{}
	}
	return domain.Meta(req.Meta)
}
