package service

import (
	"context"
	"log"
)

// Task 队列里的一个生成任务。Run 自己负责把结果写回 Store，
// 失败也在 Run 内记录到对应实体上，不向队列抛出。
type Task struct {
	Name string
	Run  func(ctx context.Context)
}

// Sequence 严格串行的任务序列：上一个任务落定（成功或失败）之前，
// 下一个任务不会出队。用于角色肖像批量生成的限速，
// 串行是对 provider 限流的让步，任务之间没有数据依赖。
type Sequence struct {
	tasks []Task
}

func NewSequence() *Sequence {
	return &Sequence{}
}

func (q *Sequence) Enqueue(name string, run func(ctx context.Context)) {
	q.tasks = append(q.tasks, Task{Name: name, Run: run})
}

func (q *Sequence) Len() int {
	return len(q.tasks)
}

// Drain 按入队顺序逐个执行。ctx 取消只会阻止后续任务出队，
// 已在执行的任务自行跑到结束。
func (q *Sequence) Drain(ctx context.Context) {
	for _, t := range q.tasks {
		select {
		case <-ctx.Done():
			log.Printf("[Queue] drained early, %s and later tasks skipped: %v", t.Name, ctx.Err())
			return
		default:
		}
		log.Printf("[Queue] running task: %s", t.Name)
		t.Run(ctx)
	}
	q.tasks = nil
}
