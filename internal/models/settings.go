package models

// Settings is the single business-parameter document. This core only reads
// it; the admin surface owns writes.
type Settings struct {
	VideoUploadFee     int64   `bson:"video_upload_fee" json:"video_upload_fee"`
	ConnectionFee      int64   `bson:"connection_fee" json:"connection_fee"`
	CommissionRate     float64 `bson:"commission_rate" json:"commission_rate"`
	AllowRegistrations bool    `bson:"allow_registrations" json:"allow_registrations"`
	AllowVideoUploads  bool    `bson:"allow_video_uploads" json:"allow_video_uploads"`
	MaintenanceMode    bool    `bson:"maintenance_mode" json:"maintenance_mode"`
}
