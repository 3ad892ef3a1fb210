package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"github.com/PhiFever/pantryscan/pkg/utils"
)

// 相机来源
const (
	SourceScreen = "screen"
	SourceFolder = "folder"
)

// DetectorTesseract 是默认的文字检测器
const DetectorTesseract = "tesseract"

// 识别精度
const (
	LevelAccurate = "accurate"
	LevelFast     = "fast"
)

// Config 是应用程序的完整配置
type Config struct {
	LogLevel    string            `yaml:"log_level"`
	Camera      CameraConfig      `yaml:"camera"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Pantry      PantryConfig      `yaml:"pantry"`
}

// CameraConfig 描述拍照来源和权限设置
type CameraConfig struct {
	// Source 是 "screen" 或 "folder"
	Source string `yaml:"source"`
	// Display 是 screen 来源使用的显示器索引
	Display int `yaml:"display"`
	// Folder 是 folder 来源读取图片的目录
	Folder string `yaml:"folder"`
	// PhotoFormat 是照片输出的编码格式（png 或 jpeg）
	PhotoFormat string `yaml:"photo_format"`
	// Restricted 模拟由策略禁止的相机访问
	Restricted bool `yaml:"restricted"`
	// PermissionFile 保存用户的授权决定，为空时使用应用数据目录
	PermissionFile string `yaml:"permission_file"`
}

// RecognitionConfig 描述文字识别参数
type RecognitionConfig struct {
	Detector           string   `yaml:"detector"`
	Level              string   `yaml:"level"`
	LanguageCorrection bool     `yaml:"language_correction"`
	Languages          []string `yaml:"languages"`
	Preprocess         bool     `yaml:"preprocess"`
	MaxDimension       int      `yaml:"max_dimension"`
	Workers            int      `yaml:"workers"`
}

// PantryConfig 描述远程物品存储
type PantryConfig struct {
	BaseURL        string  `yaml:"base_url"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Camera: CameraConfig{
			Source:      SourceScreen,
			Display:     0,
			Folder:      "frames",
			PhotoFormat: "png",
		},
		Recognition: RecognitionConfig{
			Detector:           DetectorTesseract,
			Level:              LevelAccurate,
			LanguageCorrection: true,
			Languages:          []string{"eng"},
			Preprocess:         true,
			MaxDimension:       2000,
			Workers:            2,
		},
		Pantry: PantryConfig{
			BaseURL:        "http://127.0.0.1:8000",
			TimeoutSeconds: 10,
		},
	}
}

// Validate 检查配置是否有效
func (c *Config) Validate() error {
	switch c.Camera.Source {
	case SourceScreen, SourceFolder:
	default:
		return fmt.Errorf("camera.source must be %q or %q, got %q", SourceScreen, SourceFolder, c.Camera.Source)
	}

	if c.Camera.Source == SourceFolder && c.Camera.Folder == "" {
		return errors.New("camera.folder is required for the folder source")
	}

	switch strings.ToLower(c.Camera.PhotoFormat) {
	case "png", "jpeg", "jpg":
	default:
		return fmt.Errorf("camera.photo_format must be png or jpeg, got %q", c.Camera.PhotoFormat)
	}

	if strings.TrimSpace(c.Recognition.Detector) == "" {
		return errors.New("recognition.detector is required")
	}

	switch c.Recognition.Level {
	case LevelAccurate, LevelFast:
	default:
		return fmt.Errorf("recognition.level must be %q or %q, got %q", LevelAccurate, LevelFast, c.Recognition.Level)
	}

	if c.Recognition.Workers < 1 || c.Recognition.Workers > 16 {
		return fmt.Errorf("recognition.workers must be between 1 and 16, got %d", c.Recognition.Workers)
	}

	if c.Recognition.MaxDimension < 0 {
		return fmt.Errorf("recognition.max_dimension must not be negative, got %d", c.Recognition.MaxDimension)
	}

	if c.Pantry.BaseURL == "" {
		return errors.New("pantry.base_url is required")
	}

	if c.Pantry.TimeoutSeconds <= 0 {
		return fmt.Errorf("pantry.timeout_seconds must be positive, got %.2f", c.Pantry.TimeoutSeconds)
	}

	return nil
}

// ApplyEnv 用环境变量覆盖部分配置
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PANTRY_API_URL"); v != "" {
		c.Pantry.BaseURL = v
	}
	if v := os.Getenv("PANTRY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PANTRY_CAMERA_SOURCE"); v != "" {
		c.Camera.Source = v
	}
	if v := os.Getenv("PANTRY_CAMERA_FOLDER"); v != "" {
		c.Camera.Folder = v
	}
	if v := os.Getenv("PANTRY_CAMERA_DISPLAY"); v != "" {
		display, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("PANTRY_CAMERA_DISPLAY: %w", err)
		}
		c.Camera.Display = display
	}
	if v := os.Getenv("PANTRY_RECOGNITION_WORKERS"); v != "" {
		workers, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("PANTRY_RECOGNITION_WORKERS: %w", err)
		}
		c.Recognition.Workers = workers
	}
	if v := os.Getenv("PANTRY_API_TIMEOUT"); v != "" {
		timeout, err := cast.ToFloat64E(v)
		if err != nil {
			return fmt.Errorf("PANTRY_API_TIMEOUT: %w", err)
		}
		c.Pantry.TimeoutSeconds = timeout
	}
	return nil
}

// Timeout 返回请求超时时间
func (c PantryConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

// ResolvePermissionFile 返回授权记录文件的路径
func (c CameraConfig) ResolvePermissionFile() (string, error) {
	if c.PermissionFile != "" {
		return c.PermissionFile, nil
	}
	return utils.GetAppDataPath("permission.yaml")
}

var (
	current   *Config
	currentMu sync.Mutex
)

// Get 返回全局配置，首次调用时从应用数据目录加载
// 配置文件不存在时写入默认配置
func Get() (*Config, error) {
	currentMu.Lock()
	defer currentMu.Unlock()

	if current != nil {
		return current, nil
	}

	path, err := utils.GetAppDataPath("config.yaml")
	if err != nil {
		return nil, err
	}

	cfg, err := LoadOrCreate(path)
	if err != nil {
		return nil, err
	}

	// .env 是可选的
	_ = godotenv.Load()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	current = cfg
	return current, nil
}
