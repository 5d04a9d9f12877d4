package operation

import "coursemart/internal/api/v1/dto"

// Enrollment Operations

type EnrollInput struct {
	CourseID string `path:"courseId" doc:"Course ID"`
}

type EnrollOutput struct {
	Body dto.EnrollmentResponseDTO `json:"body"`
}

type ListEnrollmentsInput struct{}

type ListEnrollmentsOutput struct {
	Body []dto.EnrollmentResponseDTO `json:"body"`
}

type CompleteLessonInput struct {
	CourseID string `path:"courseId" doc:"Course ID"`
	LessonID string `path:"lessonId" doc:"Lesson ID"`
}

type CompleteLessonOutput struct {
	Body dto.LessonProgressResponseDTO `json:"body"`
}

type ListCertificatesInput struct{}

type ListCertificatesOutput struct {
	Body []dto.CertificateResponseDTO `json:"body"`
}

// Wishlist Operations

type GetWishlistInput struct{}

type GetWishlistOutput struct {
	Body []dto.WishlistItemResponseDTO `json:"body"`
}

type AddWishlistInput struct {
	Body dto.WishlistRequestDTO `json:"body"`
}

type AddWishlistOutput struct {
	// 204 No Content
}

type RemoveWishlistInput struct {
	CourseID string `path:"courseId" doc:"Course ID"`
}

type RemoveWishlistOutput struct {
	// 204 No Content
}

// Notification Operations

type ListNotificationsInput struct {
	Unread bool `query:"unread" doc:"Only unread notifications"`
	Limit  int  `query:"limit" default:"50" minimum:"1" maximum:"200"`
}

type ListNotificationsOutput struct {
	Body []dto.NotificationResponseDTO `json:"body"`
}

type MarkNotificationReadInput struct {
	NotificationID string `path:"notificationId" doc:"Notification ID"`
}

type MarkNotificationReadOutput struct {
	// 204 No Content
}

type MarkAllNotificationsReadInput struct{}

type MarkAllNotificationsReadOutput struct {
	Body dto.MarkAllReadResponseDTO `json:"body"`
}
