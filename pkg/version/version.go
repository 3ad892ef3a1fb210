package version

const (
	// AppName 是应用程序的名称
	AppName = "pantryscan"
	// DisplayName 是界面上显示的名称
	DisplayName = "Pantry Plan Scanner"
	// Version 是当前版本
	Version = "0.3.0"
	// Author 是应用程序的作者
	Author = "NeuraXmy"
)

// GetFullName 返回带版本的完整名称
func GetFullName() string {
	return DisplayName + " v" + Version
}
