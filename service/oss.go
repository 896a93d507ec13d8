package service

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"StoryProducer-server/config"
)

var MinioClient *minio.Client

// InitMinIO 初始化归档存储连接，在 main.go 中调用。未启用时跳过。
func InitMinIO() {
	cfg := config.AppConfig.MinIO
	if !cfg.Enabled {
		log.Println("MinIO 归档未启用")
		return
	}
	var err error
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatalf("MinIO 初始化失败: %v", err)
	}
	log.Println("MinIO 连接成功")
}

// ArchiveArtifact 把生成产物镜像一份到对象存储。
// 只是归档：失败不影响实体状态，本地产物仍是唯一权威句柄。
func ArchiveArtifact(data []byte, objectName string) {
	if MinioClient == nil {
		return
	}
	ctx := context.Background()
	cfg := config.AppConfig.MinIO
	bucketName := cfg.Bucket

	exists, err := MinioClient.BucketExists(ctx, bucketName)
	if err != nil {
		log.Printf("检查 Bucket 失败: %v", err)
		return
	}
	if !exists {
		if err := MinioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			log.Printf("创建 Bucket 失败: %v", err)
			return
		}
		log.Printf("Bucket '%s' 已创建", bucketName)
	}

	contentType := "application/octet-stream"
	switch filepath.Ext(objectName) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".webp":
		contentType = "image/webp"
	case ".mp4":
		contentType = "video/mp4"
	}

	_, err = MinioClient.PutObject(ctx, bucketName, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.Printf("归档到 MinIO 失败: %v", err)
		return
	}
	log.Printf("产物已归档: %s", objectName)
}

// ArchiveImageDataURI 解开 data URI 后归档
func ArchiveImageDataURI(dataURI, objectName string) {
	if MinioClient == nil {
		return
	}
	_, data, err := DecodeDataURI(dataURI)
	if err != nil {
		log.Printf("归档图像解码失败: %v", err)
		return
	}
	ArchiveArtifact(data, objectName)
}

// ArchiveLocalFile 按本地 /static 路径归档（视频产物）
func ArchiveLocalFile(localURL, objectName string) {
	if MinioClient == nil {
		return
	}
	rel, ok := cutStaticPrefix(localURL)
	if !ok {
		return
	}
	data, err := os.ReadFile(filepath.Join(config.AppConfig.Server.StaticDir, rel))
	if err != nil {
		log.Printf("读取本地产物失败: %v", err)
		return
	}
	ArchiveArtifact(data, objectName)
}

func cutStaticPrefix(url string) (string, bool) {
	const prefix = "/static/"
	if len(url) <= len(prefix) || url[:len(prefix)] != prefix {
		return "", false
	}
	return url[len(prefix):], true
}
