package rbac

// Permission codes seeded into the permissions table. Route guards reference
// these constants; the table itself is immutable reference data.
const (
	CodeAddTag    = "add_tag"
	CodeEditTag   = "edit_tag"
	CodeDeleteTag = "delete_tag"

	CodeAddRoom    = "add_room"
	CodeEditRoom   = "edit_room"
	CodeDeleteRoom = "delete_room"

	CodeAddCategory    = "add_category"
	CodeEditCategory   = "edit_category"
	CodeDeleteCategory = "delete_category"

	CodeCreatePhoto = "create_photo"
	CodeEditPhoto   = "edit_photo"
	CodeDeletePhoto = "delete_photo"

	CodeCreateSale = "create_sale"
	CodeEditSale   = "edit_sale"
	CodeDeleteSale = "delete_sale"

	CodeShowClient = "show_client"
	CodeAddClient  = "add_client"
	CodeEditClient = "edit_client"

	CodeShowWorker = "show_worker"
	CodeEditWorker = "edit_worker"

	CodeShowGroup   = "show_group"
	CodeAddGroup    = "add_group"
	CodeEditGroup   = "edit_group"
	CodeDeleteGroup = "delete_group"

	CodeShowPermission = "show_permission"
)

// AllCodes lists every seeded permission code in display order
var AllCodes = []string{
	CodeAddTag, CodeEditTag, CodeDeleteTag,
	CodeAddRoom, CodeEditRoom, CodeDeleteRoom,
	CodeAddCategory, CodeEditCategory, CodeDeleteCategory,
	CodeCreatePhoto, CodeEditPhoto, CodeDeletePhoto,
	CodeCreateSale, CodeEditSale, CodeDeleteSale,
	CodeShowClient, CodeAddClient, CodeEditClient,
	CodeShowWorker, CodeEditWorker,
	CodeShowGroup, CodeAddGroup, CodeEditGroup, CodeDeleteGroup,
	CodeShowPermission,
}
