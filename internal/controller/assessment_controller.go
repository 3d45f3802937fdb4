package controller

import (
	"assessflow_backend/internal/service"
	"assessflow_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AssessmentController struct {
	AssessmentService *service.AssessmentService
	AssignmentService *service.AssignmentService
	FlowService       *service.AssessmentFlowService
}

func NewAssessmentController(
	assessmentService *service.AssessmentService,
	assignmentService *service.AssignmentService,
	flowService *service.AssessmentFlowService,
) *AssessmentController {
	return &AssessmentController{
		AssessmentService: assessmentService,
		AssignmentService: assignmentService,
		FlowService:       flowService,
	}
}

// writeAuthoringError 把创作侧的领域错误映射为合适的状态码
func writeAuthoringError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, util.ErrAssessmentNotFound),
		errors.Is(err, util.ErrAssignmentNotFound),
		errors.Is(err, util.ErrSubmissionNotFound),
		errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPartialMarks),
		errors.Is(err, util.ErrOptionsNotAllowed),
		errors.Is(err, util.ErrOptionsRequired):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrAlreadyAssigned):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// CreateAssessment godoc
// @Summary 创建测评
// @Tags 测评管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.AssessmentRequest true "测评信息"
// @Success 201 {object} util.Response{data=model.Assessment} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/admin/assessments [post]
func (c *AssessmentController) CreateAssessment(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.AssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	a, err := c.AssessmentService.CreateAssessment(claims.UserID, req)
	if err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Created(ctx, a)
}

// ListAssessments godoc
// @Summary 测评列表
// @Description 含话题数和题目数统计
// @Tags 测评管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/admin/assessments [get]
func (c *AssessmentController) ListAssessments(ctx *gin.Context) {
	page, limit := util.ParsePagination(ctx)

	rows, total, err := c.AssessmentService.ListAssessments(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: rows, Total: total, Page: page, Limit: limit})
}

// GetAssessment godoc
// @Summary 测评详情
// @Tags 测评管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测评ID"
// @Success 200 {object} util.Response{data=model.Assessment} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/assessments/{id} [get]
func (c *AssessmentController) GetAssessment(ctx *gin.Context) {
	a, err := c.AssessmentService.GetAssessment(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Success(ctx, a)
}

// UpdateAssessment godoc
// @Summary 更新测评
// @Tags 测评管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测评ID"
// @Param   body body service.AssessmentRequest true "测评信息"
// @Success 200 {object} util.Response{data=model.Assessment} "成功"
// @Router /api/admin/assessments/{id} [put]
func (c *AssessmentController) UpdateAssessment(ctx *gin.Context) {
	var req service.AssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	a, err := c.AssessmentService.UpdateAssessment(util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Success(ctx, a)
}

// DeleteAssessment godoc
// @Summary 删除测评
// @Description 级联删除话题、题目和选项
// @Tags 测评管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测评ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/admin/assessments/{id} [delete]
func (c *AssessmentController) DeleteAssessment(ctx *gin.Context) {
	if err := c.AssessmentService.DeleteAssessment(util.MustParseUint(ctx.Param("id"))); err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// CreateTopic godoc
// @Summary 创建话题
// @Tags 测评管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测评ID"
// @Param   body body service.TopicRequest true "话题信息"
// @Success 201 {object} util.Response{data=model.Topic} "创建成功"
// @Router /api/admin/assessments/{id}/topics [post]
func (c *AssessmentController) CreateTopic(ctx *gin.Context) {
	var req service.TopicRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	t, err := c.AssessmentService.CreateTopic(util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Created(ctx, t)
}

// ListTopics godoc
// @Summary 话题列表
// @Description 按展示顺序返回
// @Tags 测评管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测评ID"
// @Success 200 {object} util.Response{data=[]model.Topic} "成功"
// @Router /api/admin/assessments/{id}/topics [get]
func (c *AssessmentController) ListTopics(ctx *gin.Context) {
	topics, err := c.AssessmentService.ListTopics(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, topics)
}

// UpdateTopic godoc
// @Summary 更新话题
// @Tags 测评管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   topicId path int true "话题ID"
// @Param   body body service.TopicRequest true "话题信息"
// @Success 200 {object} util.Response{data=model.Topic} "成功"
// @Router /api/admin/topics/{topicId} [put]
func (c *AssessmentController) UpdateTopic(ctx *gin.Context) {
	var req service.TopicRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	t, err := c.AssessmentService.UpdateTopic(util.MustParseUint(ctx.Param("topicId")), req)
	if err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Success(ctx, t)
}

// DeleteTopic godoc
// @Summary 删除话题
// @Tags 测评管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   topicId path int true "话题ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/admin/topics/{topicId} [delete]
func (c *AssessmentController) DeleteTopic(ctx *gin.Context) {
	if err := c.AssessmentService.DeleteTopic(util.MustParseUint(ctx.Param("topicId"))); err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// CreateQuestion godoc
// @Summary 创建题目
// @Description 选择题必须携带选项；分值要么全部给出要么全部留空
// @Tags 测评管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   topicId path int true "话题ID"
// @Param   body body service.QuestionRequest true "题目信息"
// @Success 201 {object} util.Response{data=model.Question} "创建成功"
// @Failure 400 {object} util.Response "选项或分值不合法"
// @Router /api/admin/topics/{topicId}/questions [post]
func (c *AssessmentController) CreateQuestion(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.AssessmentService.CreateQuestion(util.MustParseUint(ctx.Param("topicId")), req)
	if err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// ListQuestions godoc
// @Summary 题目列表
// @Tags 测评管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   topicId path int true "话题ID"
// @Success 200 {object} util.Response{data=[]model.Question} "成功"
// @Router /api/admin/topics/{topicId}/questions [get]
func (c *AssessmentController) ListQuestions(ctx *gin.Context) {
	questions, err := c.AssessmentService.ListQuestions(util.MustParseUint(ctx.Param("topicId")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// GetQuestion godoc
// @Summary 题目详情
// @Description 含全部选项（管理端可见分值与正误）
// @Tags 测评管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   questionId path int true "题目ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/admin/questions/{questionId} [get]
func (c *AssessmentController) GetQuestion(ctx *gin.Context) {
	q, opts, err := c.AssessmentService.GetQuestion(util.MustParseUint(ctx.Param("questionId")))
	if err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"question": q, "options": opts})
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Description 携带 options 时整体替换该题选项
// @Tags 测评管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   questionId path int true "题目ID"
// @Param   body body service.QuestionRequest true "题目信息"
// @Success 200 {object} util.Response{data=model.Question} "成功"
// @Router /api/admin/questions/{questionId} [put]
func (c *AssessmentController) UpdateQuestion(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.AssessmentService.UpdateQuestion(util.MustParseUint(ctx.Param("questionId")), req)
	if err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 测评管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   questionId path int true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/admin/questions/{questionId} [delete]
func (c *AssessmentController) DeleteQuestion(ctx *gin.Context) {
	if err := c.AssessmentService.DeleteQuestion(util.MustParseUint(ctx.Param("questionId"))); err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UploadAttachment godoc
// @Summary 上传题目附件
// @Tags 测评管理
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   questionId path int true "题目ID"
// @Param   file formData file true "附件文件"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "缺少上传文件"
// @Router /api/admin/questions/{questionId}/attachment [post]
func (c *AssessmentController) UploadAttachment(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少上传文件")
		return
	}
	defer file.Close()

	url, err := c.AssessmentService.UploadAttachment(
		ctx.Request.Context(),
		util.MustParseUint(ctx.Param("questionId")),
		header.Filename, file, header.Size, header.Header.Get("Content-Type"),
	)
	if err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}

// Assign godoc
// @Summary 指派测评
// @Description 把测评指派给客户端用户，重复指派返回 409
// @Tags 测评管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测评ID"
// @Param   body body service.AssignRequest true "指派信息"
// @Success 201 {object} util.Response{data=model.Assignment} "创建成功"
// @Failure 409 {object} util.Response "已指派"
// @Router /api/admin/assessments/{id}/assignments [post]
func (c *AssessmentController) Assign(ctx *gin.Context) {
	var req service.AssignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	a, err := c.AssignmentService.Assign(util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Created(ctx, a)
}

// ListAssignments godoc
// @Summary 指派列表
// @Tags 测评管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测评ID"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/admin/assessments/{id}/assignments [get]
func (c *AssessmentController) ListAssignments(ctx *gin.Context) {
	page, limit := util.ParsePagination(ctx)

	rows, total, err := c.AssignmentService.ListByAssessment(util.MustParseUint(ctx.Param("id")), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: rows, Total: total, Page: page, Limit: limit})
}

// RevokeAssignment godoc
// @Summary 取消指派
// @Tags 测评管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   assignmentId path int true "指派ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/admin/assignments/{assignmentId} [delete]
func (c *AssessmentController) RevokeAssignment(ctx *gin.Context) {
	if err := c.AssignmentService.Revoke(util.MustParseUint(ctx.Param("assignmentId"))); err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListSubmissions godoc
// @Summary 提交列表
// @Description 按用户名模糊搜索、按状态过滤
// @Tags 测评管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测评ID"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Param   name query string false "用户名"
// @Param   status query string false "状态 in_progress/completed"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/admin/assessments/{id}/submissions [get]
func (c *AssessmentController) ListSubmissions(ctx *gin.Context) {
	page, limit := util.ParsePagination(ctx)

	rows, total, err := c.FlowService.ListSubmissions(
		util.MustParseUint(ctx.Param("id")),
		page, limit,
		ctx.Query("name"),
		ctx.Query("status"),
	)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: rows, Total: total, Page: page, Limit: limit})
}

// GetSubmission godoc
// @Summary 提交详情
// @Description 含逐题作答与得分
// @Tags 测评管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   submissionId path int true "提交ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/admin/submissions/{submissionId} [get]
func (c *AssessmentController) GetSubmission(ctx *gin.Context) {
	sub, answers, err := c.FlowService.SubmissionDetail(util.MustParseUint(ctx.Param("submissionId")))
	if err != nil {
		writeAuthoringError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"submission": sub, "answers": answers})
}
