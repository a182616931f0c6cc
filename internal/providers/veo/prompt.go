package veo

const showcasePrompt = `Create a smooth, seamless product showcase video of the provided ecommerce. Please pay close attention to the product dimensions and marks on the provided reference image ingredients. The scaling needs to be right, so the object that we're actually showing in this video matches what that object looks like in reality. It's very important you get the hyperrealism correct here.

VIDEO SPECIFICATIONS:
- Duration: 4-6 seconds
- Motion: Continuous smooth rotation, clockwise direction
- Speed: Slow, elegant rotation completing one full 360° turn
- Loop: The end frame should seamlessly connect back to the start frame for perfect looping

PRODUCT & CAMERA:
- Product stays perfectly centered throughout the entire rotation
- Camera remains completely stationary - only the product rotates
- Maintain consistent distance and framing - no zoom or camera movement
- Eye-level perspective, straight-on angle

LIGHTING & ENVIRONMENT:
- Pure white background (#FFFFFF), clean studio setting
- Soft, even studio lighting that remains constant throughout rotation
- Subtle reflections and shadows for depth and realism
- No harsh shadows or lighting changes during rotation

QUALITY:
- Photorealistic rendering matching the reference images
- Preserve all product details: colors, textures, branding
- Smooth motion with no stuttering, jumping, or warping
- High-end e-commerce product video quality

AUDIO:
- Completely muted audio
- No music allowed in output
- No sound effects allowed in the output

REFERENCE: Use the provided images as keyframes showing the product from different angles. The video should smoothly transition through all these views in a continuous rotation.`
