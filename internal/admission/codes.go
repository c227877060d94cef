package admission

// 批量操作的错误码（稳定字符串，跟单条日志错误码一起构成完整错误表）。
const (
	CodeSuccess           = "SUCCESS"
	CodeMissingParams     = "MISSING_PARAMS"
	CodeInvalidParams     = "INVALID_PARAMS"
	CodeInsufficientTags  = "INSUFFICIENT_TAGS"
	CodeTagsNotFound      = "TAGS_NOT_FOUND"
	CodeTagsNotActive     = "TAGS_NOT_ACTIVE"
	CodeTagsNotAssigned   = "TAGS_NOT_ASSIGNED"
	CodeTagsMixedAssigned = "TAGS_MIXED_ASSIGNED"
	CodeNoPersonTag       = "NO_PERSON_TAG"
	CodeNoVehicleTag      = "NO_VEHICLE_TAG"
	CodeInvalidOwnership  = "INVALID_OWNERSHIP"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeValidationError   = "VALIDATION_ERROR"
	CodeAccessError       = "ACCESS_ERROR"
	CodeSystemError       = "SYSTEM_ERROR"
)
