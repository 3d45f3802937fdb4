package controller

import (
	"assessflow_backend/internal/service"
	"assessflow_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

// FlowController 客户端作答接口：进入流程、作答、导航、提交、查成绩
type FlowController struct {
	FlowService       *service.AssessmentFlowService
	AssignmentService *service.AssignmentService
}

func NewFlowController(flowService *service.AssessmentFlowService, assignmentService *service.AssignmentService) *FlowController {
	return &FlowController{
		FlowService:       flowService,
		AssignmentService: assignmentService,
	}
}

// writeFlowError 作答侧领域错误到状态码的映射
func writeFlowError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAssessmentNotFound),
		errors.Is(err, util.ErrAssignmentNotFound),
		errors.Is(err, util.ErrSubmissionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrAssessmentInactive):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrAlreadyCompleted),
		errors.Is(err, util.ErrTopicsIncomplete):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrEmptySelection),
		errors.Is(err, util.ErrQuestionNotInTopic):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// ListMine godoc
// @Summary 我的测评
// @Description 当前用户被指派的全部启用中测评
// @Tags 作答
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]repository.AssignmentListRow} "成功"
// @Router /api/assessments [get]
func (c *FlowController) ListMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	rows, err := c.AssignmentService.ListMine(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// GetFlow godoc
// @Summary 进入作答流程
// @Description 首次访问创建提交记录，再次访问恢复到上次位置
// @Tags 作答
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测评ID"
// @Success 200 {object} util.Response{data=service.FlowView} "成功"
// @Failure 404 {object} util.Response "未指派"
// @Router /api/assessments/{id}/flow [get]
func (c *FlowController) GetFlow(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.FlowService.GetFlow(ctx.Request.Context(), claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		writeFlowError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// RecordAnswer godoc
// @Summary 记录作答
// @Description 同一题重复作答后写覆盖先写，立即落库
// @Tags 作答
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测评ID"
// @Param   body body service.AnswerRequest true "作答内容"
// @Success 200 {object} util.Response{data=service.AnswerResult} "成功"
// @Failure 400 {object} util.Response "作答内容不合法"
// @Failure 409 {object} util.Response "已完成，拒绝作答"
// @Router /api/assessments/{id}/answers [post]
func (c *FlowController) RecordAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.FlowService.RecordAnswer(ctx.Request.Context(), claims.UserID, util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		writeFlowError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Navigate godoc
// @Summary 流程导航
// @Description 事件：select_topic / next / previous / back_to_topics / complete
// @Tags 作答
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测评ID"
// @Param   body body service.NavigateRequest true "导航事件"
// @Success 200 {object} util.Response{data=service.FlowView} "成功"
// @Failure 400 {object} util.Response "未知事件"
// @Router /api/assessments/{id}/navigate [post]
func (c *FlowController) Navigate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.NavigateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.FlowService.Navigate(ctx.Request.Context(), claims.UserID, util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		writeFlowError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Complete godoc
// @Summary 提交测评
// @Description 全部话题完成后才允许；重复提交返回已有结果
// @Tags 作答
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测评ID"
// @Success 200 {object} util.Response{data=service.ResultView} "成功"
// @Failure 409 {object} util.Response "尚有话题未完成"
// @Router /api/assessments/{id}/complete [post]
func (c *FlowController) Complete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.FlowService.Complete(ctx.Request.Context(), claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		writeFlowError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Result godoc
// @Summary 成绩查询
// @Tags 作答
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测评ID"
// @Success 200 {object} util.Response{data=service.ResultView} "成功"
// @Failure 404 {object} util.Response "尚未开始作答"
// @Router /api/assessments/{id}/result [get]
func (c *FlowController) Result(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.FlowService.Result(ctx.Request.Context(), claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		writeFlowError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
