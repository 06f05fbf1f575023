package tasks

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/Vovarama1992/doc_parser/internal/ports"
)

// Source — вход задачи: либо уже сохранённый артефакт,
// либо URL, который скачает воркер.
type Source struct {
	Artifact *ports.Artifact
	URL      string
	Opts     ports.Options
}

type job struct {
	task ports.Task
	src  Source
}

type Service struct {
	repo       ports.TaskRepo
	uploader   ports.Uploader
	dispatcher ports.Dispatcher

	queue   chan job
	wg      sync.WaitGroup
	workers int
	timeout time.Duration // дедлайн одной конвертации
	ttl     time.Duration // время жизни задачи в хранилище
}

func NewService(
	repo ports.TaskRepo,
	uploader ports.Uploader,
	dispatcher ports.Dispatcher,
	workers int,
	timeout, ttl time.Duration,
) *Service {
	return &Service{
		repo:       repo,
		uploader:   uploader,
		dispatcher: dispatcher,
		queue:      make(chan job, 100),
		workers:    workers,
		timeout:    timeout,
		ttl:        ttl,
	}
}

func (s *Service) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-s.queue:
					if !ok {
						return
					}
					s.run(ctx, j)
				}
			}
		}()
	}
}

func (s *Service) Wait() {
	close(s.queue)
	s.wg.Wait()
}

// Submit регистрирует задачу и ставит её в очередь воркеров.
func (s *Service) Submit(ctx context.Context, t ports.Task, src Source) error {
	t.Status = ports.TaskPending
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return err
	}
	s.queue <- job{task: t, src: src}
	return nil
}

// RunSync исполняет задачу в вызывающей горутине (для /convert и
// /api/v1/upload/parse) и возвращает терминальное состояние.
func (s *Service) RunSync(ctx context.Context, t ports.Task, src Source) ports.Task {
	t.Status = ports.TaskPending
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if err := s.repo.Create(ctx, t); err != nil {
		log.Printf("[tasks] create failed for %s: %v", t.ID, err)
	}
	return s.execute(ctx, t, src)
}

// Get возвращает задачу; истёкшие считаются несуществующими.
func (s *Service) Get(ctx context.Context, id string) (ports.Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return ports.Task{}, err
	}
	if time.Since(t.CreatedAt) > s.ttl {
		return ports.Task{}, ports.ErrTaskNotFound
	}
	return t, nil
}

// PurgeExpired удаляет задачи старше TTL. Зовётся фоновым тикером из main.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, time.Now().Add(-s.ttl))
}

func (s *Service) run(ctx context.Context, j job) {
	_ = s.execute(ctx, j.task, j.src)
}

func (s *Service) execute(ctx context.Context, t ports.Task, src Source) ports.Task {
	t.Status = ports.TaskProcessing
	s.update(t)

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	art := src.Artifact
	if art == nil {
		a, fault := s.uploader.FetchURL(cctx, t.ID, src.URL)
		if fault != nil {
			return s.fail(t, fault)
		}
		art = &a
		t.Meta.Name = a.Name
		t.Meta.Size = a.Size
		t.Meta.MimeType = a.MimeType
	}

	// файл обязан исчезнуть на любом пути выхода
	defer func() {
		if err := art.Remove(); err != nil {
			log.Printf("[tasks] failed to remove artifact %s: %v", art.Path, err)
		}
	}()

	res, fault := s.dispatcher.Dispatch(cctx, t.ID, *art, src.Opts)
	if fault != nil {
		return s.fail(t, fault)
	}

	if art.MimeType == "application/pdf" {
		if res.Pages > 0 {
			t.Meta.Pages = strconv.Itoa(res.Pages)
		} else {
			t.Meta.Pages = "Unknown"
		}
	}

	t.Status = ports.TaskSuccess
	t.Content = res.Markdown
	s.update(t)
	return t
}

func (s *Service) fail(t ports.Task, fault *ports.Fault) ports.Task {
	log.Printf("[tasks] task %s failed (%s): %v", t.ID, fault.Kind, fault)
	t.Status = ports.TaskError
	t.Error = fault.Message
	t.ErrorKind = fault.Kind
	s.update(t)
	return t
}

// update пишет в репозиторий на фоновом контексте: статус должен
// сохраниться и тогда, когда дедлайн запроса уже истёк.
func (s *Service) update(t ports.Task) {
	if err := s.repo.Update(context.Background(), t); err != nil {
		log.Printf("[tasks] update failed for %s: %v", t.ID, err)
	}
}
