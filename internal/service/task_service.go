package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/mapper"
	"github.com/vietbiz/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TaskService struct {
	taskRepo *repository.TaskRepository
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewTaskService(taskRepo *repository.TaskRepository, userRepo *repository.UserRepository, logger *zap.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *TaskService) Create(ctx context.Context, req *domain.CreateTaskRequest) (*domain.TaskDTO, error) {
	task := &domain.Task{
		Title:      req.Title,
		Status:     req.Status,
		CustomerID: req.CustomerID,
		DealID:     req.DealID,
		TicketID:   req.TicketID,
		DueDate:    req.DueDate,
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusTodo
	}
	if err := s.applyAssignee(ctx, task, req.AssignedTo); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

func (s *TaskService) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskDTO, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

func (s *TaskService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateTaskRequest) (*domain.TaskDTO, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	task.Title = req.Title
	if req.Status != "" {
		task.Status = req.Status
	}
	task.CustomerID = req.CustomerID
	task.DealID = req.DealID
	task.TicketID = req.TicketID
	task.DueDate = req.DueDate
	if err := s.applyAssignee(ctx, task, req.AssignedTo); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.taskRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get task: %w", err)
	}
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskService) List(ctx context.Context, page, pageSize int, filters *repository.TaskFilters) (*domain.PaginatedResponse, error) {
	tasks, total, err := s.taskRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	dtos := make([]domain.TaskDTO, 0, len(tasks))
	for i := range tasks {
		dtos = append(dtos, mapper.ToTaskDTO(&tasks[i]))
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *TaskService) applyAssignee(ctx context.Context, task *domain.Task, assignedTo *uuid.UUID) error {
	if assignedTo == nil {
		task.AssignedTo = nil
		task.AssigneeName = ""
		return nil
	}
	user, err := s.userRepo.GetByID(ctx, *assignedTo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	task.AssignedTo = &user.ID
	task.AssigneeName = user.FullName
	return nil
}
