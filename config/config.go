package config

import (
    "log"
    "os"

    "github.com/joho/godotenv"
    "gopkg.in/yaml.v2"
)

type Config struct {
    Server struct {
        Port      string `yaml:"port"`
        StaticDir string `yaml:"static_dir"`
    } `yaml:"server"`
    Gemini struct {
        APIKey       string `yaml:"api_key"`
        TextModel    string `yaml:"text_model"`
        ImageModel   string `yaml:"image_model"`
        VideoModel   string `yaml:"video_model"`
        PollInterval int    `yaml:"poll_interval"` // 视频轮询间隔（秒）
    } `yaml:"gemini"`
    MinIO struct {
        Enabled   bool   `yaml:"enabled"`
        Endpoint  string `yaml:"endpoint"`
        AccessKey string `yaml:"access_key"`
        SecretKey string `yaml:"secret_key"`
        Bucket    string `yaml:"bucket"`
        UseSSL    bool   `yaml:"use_ssl"`
    } `yaml:"minio"`
}

var AppConfig *Config

func InitConfig() {
    // .env 优先加载（GEMINI_API_KEY 不入 yaml）
    if err := godotenv.Load(); err != nil {
        log.Printf(".env 未找到，使用系统环境变量")
    }

    f, err := os.Open("config/config.yaml")
    if err != nil {
        log.Fatalf("配置文件读取失败: %v", err)
    }
    defer f.Close()
    decoder := yaml.NewDecoder(f)
    AppConfig = &Config{}
    if err := decoder.Decode(AppConfig); err != nil {
        log.Fatalf("配置文件解析失败: %v", err)
    }

    if key := os.Getenv("GEMINI_API_KEY"); key != "" {
        AppConfig.Gemini.APIKey = key
    }
    if AppConfig.Gemini.APIKey == "" {
        log.Fatal("GEMINI_API_KEY is not set")
    }

    if AppConfig.Server.Port == "" {
        AppConfig.Server.Port = ":8080"
    }
    if AppConfig.Server.StaticDir == "" {
        AppConfig.Server.StaticDir = "./static"
    }
    if AppConfig.Gemini.TextModel == "" {
        AppConfig.Gemini.TextModel = "gemini-2.5-pro"
    }
    if AppConfig.Gemini.ImageModel == "" {
        AppConfig.Gemini.ImageModel = "gemini-2.5-flash-image"
    }
    if AppConfig.Gemini.VideoModel == "" {
        AppConfig.Gemini.VideoModel = "veo-3.1-fast-generate-preview"
    }
    if AppConfig.Gemini.PollInterval <= 0 {
        AppConfig.Gemini.PollInterval = 10
    }
}
