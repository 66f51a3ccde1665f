package handlers

// Keys of the values handlers leave in pipeline.Context.Data.
const (
	KeyVideoURLFound   = "video_url_found"
	KeyVideoURL        = "video_url"
	KeyServiceName     = "service_name"
	KeyProviderNum     = "provider_num"
	KeyProviderName    = "provider_name"
	KeyVideoError      = "video_error"
	KeyVideoDownloaded = "video_downloaded"
	KeyVideoSize       = "video_size"
	KeyVideoSent       = "video_sent"

	KeyAITrigger     = "ai_trigger"
	KeyAIUserMessage = "ai_user_message"

	KeySummaryMessages = "summary_messages"
)

// Values stored under KeyVideoError.
const (
	VideoErrorProvidersFailed = "providers_failed"
	VideoErrorTooLarge        = "too_large"
	VideoErrorNotFound        = "not_found"
	VideoErrorDownloadFailed  = "download_failed"
	VideoErrorSendFailed      = "send_failed"
)
