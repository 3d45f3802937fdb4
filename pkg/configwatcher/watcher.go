package configwatcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"assessflow_backend/internal/config"
	"assessflow_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadFunc 配置重载回调，仅在新配置成功解析后触发
type ReloadFunc func(cfg *config.Config)

// WatchConfig 监听配置文件并在变更后重载。监听的是所在目录而不是
// 文件本身：编辑器保存时常用「写临时文件再改名」，直接监听文件会在
// 第一次改名后失效。变更做 1 秒防抖，避免连续写入触发多次重载。
func WatchConfig(configPath string, reload ReloadFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	dir := filepath.Dir(absPath)
	base := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch config dir %s: %w", dir, err)
	}

	var mu sync.Mutex
	timer := time.NewTimer(0)
	<-timer.C

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				mu.Lock()
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(1 * time.Second)
				mu.Unlock()
			}
		case <-timer.C:
			newCfg, err := config.LoadConfig(dir)
			if err != nil {
				logger.Log.Error("配置重载失败，沿用当前配置", zap.Error(err))
				continue
			}
			reload(newCfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Error("配置监听出错", zap.Error(err))
		}
	}
}
