package domain

type Accelerator string

const (
	AccelNone         Accelerator = "none"
	AccelCUDA         Accelerator = "cuda"
	AccelVideoToolbox Accelerator = "videotoolbox"
	AccelVAAPI        Accelerator = "vaapi"
	AccelQSV          Accelerator = "qsv"
)

// HWAccelConfig describes how an H.264 encoder is fed raw RGB frames.
// DeviceFlags precede the inputs; UploadFilter converts and uploads
// frames to the device when the encoder needs device memory.
type HWAccelConfig struct {
	Accelerator  Accelerator
	DeviceFlags  []string
	EncodeFlags  []string
	Encoder      string
	UploadFilter string
	PixelFormat  string
}
